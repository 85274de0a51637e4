// =============================================================================
// classifier.go - リンク分類器
// =============================================================================
//
// 1枚のカード（一覧ページ上の記事らしき塊）から「記事ページへの唯一の
// アンカー」を選び出します。選べないカードは候補ゼロで、これはエラーでは
// なく日常です。
//
// 【アルゴリズム】
//   1. ModeExternalLinkCard: 指定セレクタのアンカーを無条件採用
//   2. ModeStrictSlugOnly:   スラグ文法に一致するパスのみ採用、無ければ棄却
//   3. それ以外:             全アンカーをスコアリングして最高点を採用。
//      採用後もパスが共通除外に一致するなら棄却する（多層防御）
//
// クロスホスト許可のあるホスト（一覧と記事のドメインが別）は、スコアの
// ルール引きをリンク先ホストのルールで行う。
//
// =============================================================================
package pipeline

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reTrailingHex = regexp.MustCompile(`[0-9a-fA-F]{12}$`)

// badAnchorHints はアンカーのテキスト/クラスに現れたら減点する語。
var badAnchorHints = []string{
	"author", "プロフィール", "筆者", "投稿者", "users", "タグ", "category", "topics",
}

// goodAnchorClasses は見出しアンカーらしいクラス名。
var goodAnchorClasses = []string{
	"title", "headline", "entry-title", "news-title", "permalink",
}

// ScoreLink は href を記事URLらしさで採点する。
// 共通除外/ホスト別除外は -100、ホスト別 include は +20、
// 末尾12桁hexスラグ +3、パス深度（上限4）が同点時のタイブレーク。
func ScoreLink(href, baseHostRaw string, rules RuleTable) int {
	u, err := url.Parse(href)
	if err != nil || !strings.HasPrefix(u.Scheme, "http") {
		return -999
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	linkHost := NormalizeHost(u.Host)
	baseHost := NormalizeHost(baseHostRaw)

	score := 0
	for _, re := range commonExcludes {
		if re.MatchString(path) {
			score -= 100
		}
	}

	// クロスホスト許可があるホストはリンク先ホストのルールで採点する
	ruleHost := baseHost
	if len(rules.RuleFor(baseHost).AllowCrossHost) > 0 {
		ruleHost = linkHost
	}
	rule := rules.RuleFor(ruleHost)

	for _, re := range rule.Include {
		if re.MatchString(path) {
			score += 20
		}
	}
	for _, re := range rule.Exclude {
		if re.MatchString(path) {
			score -= 100
		}
	}

	if reTrailingHex.MatchString(path) {
		score += 3
	}

	depth := strings.Count(strings.Trim(path, "/"), "/")
	if depth > 4 {
		depth = 4
	}
	score += depth

	return score
}

// PickArticleAnchor はカードから記事アンカーを1つ選ぶ。無ければ空文字。
func PickArticleAnchor(card *goquery.Selection, baseURL string, rules RuleTable) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	baseHostRaw := parsed.Host
	baseHost := NormalizeHost(baseHostRaw)
	rule := rules.RuleFor(baseHost)

	switch rule.Special {
	case ModeExternalLinkCard:
		a := card.Find(rule.EntrySelector).First()
		if href, ok := a.Attr("href"); ok {
			return NormalizeURL(ResolveURL(baseURL, href))
		}
		return ""

	case ModeStrictSlugOnly:
		found := ""
		card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			abs := NormalizeURL(ResolveURL(baseURL, href))
			if abs == "" {
				return true
			}
			u, err := url.Parse(abs)
			if err != nil {
				return true
			}
			path := u.Path
			if path == "" {
				path = "/"
			}
			for _, re := range rule.Exclude {
				if re.MatchString(path) {
					return true
				}
			}
			for _, re := range rule.SlugPatterns {
				if re.MatchString(path) {
					found = abs
					return false
				}
			}
			return true
		})
		return found
	}

	bestHref := ""
	bestScore := -1 << 30
	card.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
			return
		}
		abs := NormalizeURL(ResolveURL(baseURL, href))
		if abs == "" {
			return
		}

		score := ScoreLink(abs, baseHostRaw, rules)

		text := strings.ToLower(strings.TrimSpace(a.Text()))
		class, _ := a.Attr("class")
		class = strings.ToLower(class)
		for _, kw := range badAnchorHints {
			if strings.Contains(text, kw) || strings.Contains(class, kw) {
				score -= 30
			}
		}
		for _, good := range goodAnchorClasses {
			if strings.Contains(class, good) {
				score += 10
			}
		}
		if rel, ok := a.Attr("rel"); ok && strings.Contains(strings.ToLower(rel), "permalink") {
			score += 10
		}

		if score > bestScore {
			bestScore = score
			bestHref = abs
		}
	})

	if bestHref == "" {
		return ""
	}

	// 多層防御: 最高点でも除外パス（共通/ホスト別）なら採らない
	if u, err := url.Parse(bestHref); err == nil {
		path := u.Path
		if path == "" {
			path = "/"
		}
		for _, re := range commonExcludes {
			if re.MatchString(path) {
				return ""
			}
		}
		for _, re := range rules.RuleFor(NormalizeHost(u.Host)).Exclude {
			if re.MatchString(path) {
				return ""
			}
		}
	}
	return bestHref
}
