// =============================================================================
// lists.go - HTML一覧ページの収穫
// =============================================================================
//
// 一覧ページのDOMを「カードらしき要素」単位で歩き、カードごとに
// リンク分類器 + タイトル抽出 + 一覧側時刻ヒントの粗い解釈を走らせて
// Candidate を作ります。
//
// 一覧マークアップに意味のあるタイムスタンプ属性があることは稀なので、
// 時刻は time 要素・日付らしいクラス名・カード先頭の短いテキストノードから
// ヒューリスティックに拾います。時刻が見つからないカードは、
// AllowNoListTime なホスト（記事ページ側が正とわかっているサイト）を除き
// 候補にしません。
//
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// cardSelector は「記事カードかもしれない」要素を広めに拾うセレクタ。
const cardSelector = "article, li, div, section, dd"

// titleSelectors は優先順のタイトル候補セレクタ。
var titleSelectors = []string{
	"a h1", "a h2", "a h3", "h1 a", "h2 a", "h3 a", "h1", "h2", "h3",
}

// dateClassNames は日付テキストが入りがちなクラス名。
var dateClassNames = []string{
	"time", "date", "timestamp", "modDate", "update",
	"c-article__time", "c-card__time", "pubdate",
}

// tx は要素のテキストを空白正規化して返す。
func tx(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

// bestTimeHint は時刻ヒント群を解釈し、lookback 内で最も新しい値を返す。
func bestTimeHint(hints []string, now time.Time, lookback time.Duration) (time.Time, string) {
	var best time.Time
	raw := ""
	for _, h := range hints {
		cand := ParseDateTime(h, now)
		if !WithinLookback(cand, now, lookback) {
			continue
		}
		if best.IsZero() || cand.After(best) {
			best = cand
			raw = h
		}
	}
	return best, raw
}

// ExtractListCandidates は一覧ページのDOMから Candidate 群を抽出する。
func ExtractListCandidates(doc *goquery.Document, pageURL string, rules RuleTable, now time.Time, lookback time.Duration) []Candidate {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	baseHost := NormalizeHost(parsed.Host)
	rule := rules.RuleFor(baseHost)

	// リンク先ホストの許可集合。既定は自ホストのみ。
	// 外部リンクカード（アグリゲータ）は無制限、クロスホスト許可は許可集合。
	var allowed map[string]bool
	switch {
	case rule.Special == ModeExternalLinkCard:
		allowed = nil
	case len(rule.AllowCrossHost) > 0:
		allowed = rule.AllowCrossHost
	default:
		allowed = map[string]bool{baseHost: true}
	}

	var items []Candidate
	seen := map[[2]string]bool{}

	pushCard := func(card *goquery.Selection) {
		link := PickArticleAnchor(card, pageURL, rules)
		if link == "" {
			return
		}
		if allowed != nil {
			lu, err := url.Parse(link)
			if err != nil || !allowed[NormalizeHost(lu.Host)] {
				return
			}
		}

		// タイトル: 見出しセレクタ → カード全文 → アンカーテキスト → リンク
		title := ""
		for _, sel := range titleSelectors {
			if el := card.Find(sel).First(); el.Length() > 0 {
				title = tx(el)
				break
			}
		}
		if title == "" {
			title = tx(card)
		}
		if title == "" {
			title = tx(card.Find("a[href]").First())
		}
		if title == "" {
			title = link
		}

		// 一覧側の時刻ヒント
		var hints []string
		card.Find("time").Each(func(_ int, el *goquery.Selection) {
			if dt, ok := el.Attr("datetime"); ok {
				hints = append(hints, dt)
			}
			if t := tx(el); t != "" {
				hints = append(hints, t)
			}
		})
		for _, cls := range dateClassNames {
			if el := card.Find("." + cls).First(); el.Length() > 0 {
				hints = append(hints, tx(el))
			}
		}
		// カード先頭の短いテキストノードだけを時刻ヒント候補に含める
		// （長い段落は本文であって、中の日付らしき数字は拾いたくない）
		picked := 0
		card.Find("span, small, p").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			t := tx(el)
			if t != "" && len([]rune(t)) <= 40 {
				hints = append(hints, t)
				picked++
			}
			return picked < 3
		})

		listTime, listRaw := bestTimeHint(hints, now, lookback)
		if listTime.IsZero() && !rule.AllowNoListTime {
			return
		}

		key := [2]string{strings.TrimSpace(title), link}
		if seen[key] {
			return
		}
		seen[key] = true

		items = append(items, Candidate{
			SourceList:    pageURL,
			Title:         strings.TrimSpace(title),
			Link:          link,
			ListTimeGuess: listTime,
			ListTimeRaw:   listRaw,
		})
	}

	cards := doc.Find(cardSelector)
	if cards.Length() == 0 {
		cards = doc.Find("*")
	}
	cards.Each(func(_ int, card *goquery.Selection) {
		pushCard(card)
	})

	// 最終手段: 広いセレクタが空振りしたサイトでは、各アンカーの直近の親を
	// 擬似カードとして扱う
	if len(items) == 0 {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			parent := a.Parent()
			if parent.Length() == 0 {
				parent = a
			}
			pushCard(parent)
		})
	}

	return items
}

// CollectFromList は一覧ページを取得してカード抽出する。取得/パース失敗は
// そのソースが空だったものとして扱い、エラーを返して呼び出し側に記録させる。
func (p *Pipeline) CollectFromList(ctx context.Context, pageURL string) ([]Candidate, error) {
	body, _, err := p.fetcher.Fetch(ctx, pageURL, ClassList, false)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}
	return ExtractListCandidates(doc, pageURL, p.sources.Rules, p.now, p.lookback), nil
}
