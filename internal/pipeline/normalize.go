package pipeline

import (
	"net/url"
	"strings"
)

// trackingPrefixes はクエリキーの前方一致で除去する追跡パラメータ。
var trackingPrefixes = []string{"utm_", "ref", "source", "mkt_tok"}

// trackingExact は完全一致で除去するキー（Medium の ?sk=... 等）。
var trackingExact = map[string]bool{"sk": true}

// NormalizeHost はホスト名を小文字化し、先頭の "www." を落とす。
// ルールテーブルの引きはすべてこの正規化後のホストで行う。
func NormalizeHost(host string) string {
	h := strings.ToLower(host)
	return strings.TrimPrefix(h, "www.")
}

// NormalizeURL は追跡クエリを除去し、残りを再エンコードして返す。
// 冪等: NormalizeURL(NormalizeURL(u)) == NormalizeURL(u)。
// パースできない入力はそのまま返す（落とさない）。
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if trackingExact[lower] {
			q.Del(key)
			continue
		}
		for _, p := range trackingPrefixes {
			if strings.HasPrefix(lower, p) {
				q.Del(key)
				break
			}
		}
	}
	u.RawQuery = q.Encode()

	s := u.String()
	return strings.TrimRight(s, "?")
}

// titleStrip はタイトルの重複排除キー生成時に取り除く引用符/括弧/記号。
const titleStrip = "\"'“”‘’「」『』【】()（）[]!！?？:：;；、。,."

// NormalizeTitle は重複排除キー用にタイトルを正規化する。
// 表示には使わない: トリム → 空白畳み込み → 小文字化 → 記号除去 → 再畳み込み。
func NormalizeTitle(t string) string {
	t = strings.Join(strings.Fields(t), " ")
	t = strings.ToLower(t)
	t = strings.Map(func(r rune) rune {
		if strings.ContainsRune(titleStrip, r) {
			return ' '
		}
		return r
	}, t)
	return strings.Join(strings.Fields(t), " ")
}

// ResolveURL は相対 href を基底URLに対して解決する。失敗時は空文字。
func ResolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
