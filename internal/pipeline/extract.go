// =============================================================================
// extract.go - 記事ページからの本文・公開時刻・正規URLの抽出
// =============================================================================
//
// 一覧側の情報はどこまでも「推定」なので、記事ページを開いて確定情報を
// 掘り直します。
//
// 【本文】 ステージを順に試し、常に「いちばん長い本文」を採用する
//   1. readability（go-shiori）による本文抽出
//   2. 主要コンテナ内の <p>（20文字以上）の連結
//   3. <article> / 全 <p> の総なめ
//   PDFは別経路（ledongthuc/pdf でページごとに平文化）。
//
// 【公開時刻】 meta → time[datetime] → JSON-LD → 可視テキストの順に集め、
// 見つかった中で最も新しい値を採用する（更新日 > 初出日を優先する挙動）。
// ZennのようにHTMLに時刻が無いサイトは __NEXT_DATA__ のJSONから救出する。
//
// 【正規URL】 link[rel=canonical] → og:url。ただし別ホストへの付け替えは
// クロスホスト許可のあるペアのみ（アグリゲータの自己canonical対策）。
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
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/tidwall/gjson"
)

// Article は記事ページから確定できた情報。
type Article struct {
	Title        string
	CanonicalURL string
	Body         string
	PublishedAt  time.Time
	PublishedRaw string
}

// metaDateProps は公開/更新時刻を運びがちなmeta属性値。
var metaDateProps = []string{
	"article:published_time", "article:modified_time", "og:updated_time",
	"pubdate", "publishdate", "date", "dc.date", "dc.date.issued",
}

// jsonDateKeys はJSON-LDや__NEXT_DATA__で探す日時キー。
var jsonDateKeys = []string{
	"datePublished", "dateModified", "publishedAt", "published_at",
	"updatedAt", "updated_at", "released_at",
}

// ExtractArticle は記事URLを取得し、本文・時刻・正規URLを確定する。
func (p *Pipeline) ExtractArticle(ctx context.Context, cand Candidate) (*Article, error) {
	body, contentType, err := p.fetcher.Fetch(ctx, cand.Link, ClassArticle, false)
	if err != nil {
		// 取得失敗時は readability 自身の取得経路でもう一度だけ試す
		if art, rerr := readability.FromURL(cand.Link, p.cfg.FetchTimeout); rerr == nil {
			return &Article{Title: art.Title, Body: normalizeBody(art.TextContent)}, nil
		}
		return nil, err
	}

	if strings.Contains(contentType, "application/pdf") || strings.HasSuffix(strings.ToLower(cand.Link), ".pdf") {
		text, err := extractPDFText(body)
		if err != nil {
			return nil, fmt.Errorf("extract pdf %s: %w", cand.Link, err)
		}
		return &Article{Body: text}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article HTML: %w", err)
	}

	art := &Article{
		Title:        extractTitle(doc),
		CanonicalURL: p.extractCanonical(doc, cand.Link),
		Body:         p.extractBody(body, doc, cand.Link),
	}
	art.PublishedAt, art.PublishedRaw = p.extractPublishedAt(doc)
	return art, nil
}

// extractBody は各ステージを試し、最長の本文を返す。
func (p *Pipeline) extractBody(raw []byte, doc *goquery.Document, pageURL string) string {
	best := ""

	// Stage 1: readability
	if u, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(bytes.NewReader(raw), u); err == nil {
			if t := normalizeBody(article.TextContent); len([]rune(t)) > len([]rune(best)) {
				best = t
			}
		}
	}
	if len([]rune(best)) >= p.cfg.MinBodyChars {
		return best
	}

	// Stage 2: 主要コンテナ内の段落
	var parts []string
	doc.Find("article p, main p, .article-body p, .post-content p, .entry-content p, #content p").Each(func(_ int, el *goquery.Selection) {
		t := tx(el)
		if len([]rune(t)) >= 20 {
			parts = append(parts, t)
		}
	})
	if t := strings.Join(parts, "\n"); len([]rune(t)) > len([]rune(best)) {
		best = t
	}
	if len([]rune(best)) >= p.cfg.MinBodyChars {
		return best
	}

	// Stage 3: 全段落の総なめ
	parts = parts[:0]
	sel := doc.Find("article")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	sel.Find("p").Each(func(_ int, el *goquery.Selection) {
		if t := tx(el); t != "" {
			parts = append(parts, t)
		}
	})
	if t := strings.Join(parts, "\n"); len([]rune(t)) > len([]rune(best)) {
		best = t
	}
	return best
}

func normalizeBody(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// extractTitle は og:title → <title> の順で記事タイトルを拾う。
func extractTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractCanonical は正規URLを返す。別ホストへの付け替えは許可ペアのみ。
func (p *Pipeline) extractCanonical(doc *goquery.Document, pageURL string) string {
	cand := ""
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		cand = strings.TrimSpace(href)
	}
	if cand == "" {
		if c, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok {
			cand = strings.TrimSpace(c)
		}
	}
	if cand == "" {
		return ""
	}
	cand = NormalizeURL(ResolveURL(pageURL, cand))

	pu, err1 := url.Parse(pageURL)
	cu, err2 := url.Parse(cand)
	if err1 != nil || err2 != nil || !strings.HasPrefix(cu.Scheme, "http") {
		return ""
	}
	pageHost := NormalizeHost(pu.Host)
	candHost := NormalizeHost(cu.Host)
	if pageHost == candHost {
		return cand
	}
	if p.sources.Rules.RuleFor(pageHost).AllowCrossHost[candHost] {
		return cand
	}
	return ""
}

// extractPublishedAt は記事ページのあらゆる時刻表現を集め、最新を返す。
func (p *Pipeline) extractPublishedAt(doc *goquery.Document) (time.Time, string) {
	var hints []string

	doc.Find("meta[property], meta[name]").Each(func(_ int, el *goquery.Selection) {
		key, ok := el.Attr("property")
		if !ok {
			key, _ = el.Attr("name")
		}
		key = strings.ToLower(key)
		for _, want := range metaDateProps {
			if key == want {
				if c, ok := el.Attr("content"); ok {
					hints = append(hints, c)
				}
				break
			}
		}
	})

	doc.Find("time[datetime]").Each(func(_ int, el *goquery.Selection) {
		if dt, ok := el.Attr("datetime"); ok {
			hints = append(hints, dt)
		}
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, el *goquery.Selection) {
		hints = append(hints, jsonDateValues(el.Text())...)
	})

	// Zenn等のSPA: サーバサイドpropsに時刻が埋まっている
	if nd := doc.Find("script#__NEXT_DATA__").First(); nd.Length() > 0 {
		hints = append(hints, jsonDateValues(nd.Text())...)
	}

	doc.Find("time").Each(func(_ int, el *goquery.Selection) {
		if t := tx(el); t != "" {
			hints = append(hints, t)
		}
	})
	for _, cls := range dateClassNames {
		if el := doc.Find("." + cls).First(); el.Length() > 0 {
			hints = append(hints, tx(el))
		}
	}

	var best time.Time
	raw := ""
	for _, h := range hints {
		ts := ParseDateTime(h, p.now)
		if ts.IsZero() || ts.After(p.now.Add(time.Hour)) {
			continue
		}
		if best.IsZero() || ts.After(best) {
			best = ts
			raw = strings.TrimSpace(h)
		}
	}
	return best, raw
}

// jsonDateValues はJSON文字列から日時キーの値を深さ優先で集める。
func jsonDateValues(raw string) []string {
	parsed := gjson.Parse(raw)
	if !parsed.Exists() {
		return nil
	}
	var out []string
	var walk func(v gjson.Result)
	walk = func(v gjson.Result) {
		switch {
		case v.IsObject():
			v.ForEach(func(k, child gjson.Result) bool {
				for _, want := range jsonDateKeys {
					if k.Str == want && child.Type == gjson.String {
						out = append(out, child.Str)
					}
				}
				walk(child)
				return true
			})
		case v.IsArray():
			v.ForEach(func(_, child gjson.Result) bool {
				walk(child)
				return true
			})
		}
	}
	walk(parsed)
	return out
}

// extractPDFText はPDFの全ページを平文化する。
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
