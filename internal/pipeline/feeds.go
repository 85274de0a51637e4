// =============================================================================
// feeds.go - RSS/Atomフィードの収穫
// =============================================================================
//
// フィードはまず gofeed で厳密にパースし、壊れたXML（実在します）に限り
// goqueryで item/entry を直接なめる寛容モードへ落とします。
// タイトルとリンクの両方が取れないエントリは捨てる。
//
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// feedTimeFields は寛容モードで探す日時要素（優先順）。
// HTMLパーサはタグ名を小文字化するのでセレクタも小文字で書く。
var feedTimeFields = []string{"published", "updated", "pubdate", "date"}

// parseFeedTime はフィードの日時文字列を解釈する。RFC822系が圧倒的多数なので
// 先に試し、外れたら共通の日時パーサに回す。
func parseFeedTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(now.Location())
		}
	}
	return ParseDateTime(s, now)
}

// FetchFeedItems はフィードを取得し Candidate 群として返す。
func (p *Pipeline) FetchFeedItems(ctx context.Context, feedURL string) ([]Candidate, error) {
	body, _, err := p.fetcher.Fetch(ctx, feedURL, ClassFeed, true)
	if err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	feed, err := parser.Parse(bytes.NewReader(body))
	if err == nil {
		return p.feedCandidates(feedURL, feed), nil
	}

	// 寛容モード: XMLとして壊れていてもDOMとしては読めることが多い
	items, lerr := lenientFeedItems(body, feedURL, p.now)
	if lerr != nil {
		return nil, err
	}
	return items, nil
}

func (p *Pipeline) feedCandidates(feedURL string, feed *gofeed.Feed) []Candidate {
	var out []Candidate
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := NormalizeURL(strings.TrimSpace(item.Link))
		if title == "" || link == "" || !strings.HasPrefix(link, "http") {
			continue
		}

		var ts time.Time
		switch {
		case item.PublishedParsed != nil:
			ts = item.PublishedParsed.In(p.now.Location())
		case item.UpdatedParsed != nil:
			ts = item.UpdatedParsed.In(p.now.Location())
		case item.Published != "":
			ts = parseFeedTime(item.Published, p.now)
		case item.Updated != "":
			ts = parseFeedTime(item.Updated, p.now)
		}

		raw := item.Published
		if raw == "" {
			raw = item.Updated
		}
		out = append(out, Candidate{
			SourceList:    feedURL,
			Title:         title,
			Link:          link,
			ListTimeGuess: ts,
			ListTimeRaw:   strings.TrimSpace(raw),
		})
	}
	return out
}

// lenientFeedItems は壊れたフィードから item/entry を直接拾う。
func lenientFeedItems(body []byte, feedURL string, now time.Time) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out []Candidate
	doc.Find("item, entry").Each(func(_ int, el *goquery.Selection) {
		title := strings.TrimSpace(el.Find("title").First().Text())

		// HTMLパーサは<link>をvoid要素として扱うため、RSSのURLテキストは
		// linkノードの「次の兄弟」に落ちる。href属性（Atom）→テキスト→兄弟
		// テキストの順で拾う。
		linkSel := el.Find("link").First()
		link, _ := linkSel.Attr("href")
		if link == "" {
			link = linkSel.Text()
		}
		if strings.TrimSpace(link) == "" && linkSel.Length() > 0 {
			if n := linkSel.Get(0).NextSibling; n != nil && n.Type == html.TextNode {
				link = n.Data
			}
		}
		link = NormalizeURL(strings.TrimSpace(link))
		if title == "" || link == "" || !strings.HasPrefix(link, "http") {
			return
		}

		var ts time.Time
		raw := ""
		for _, field := range feedTimeFields {
			s := strings.TrimSpace(el.Find(field).First().Text())
			if s == "" {
				continue
			}
			if t := parseFeedTime(s, now); !t.IsZero() {
				ts = t
				raw = s
				break
			}
		}

		out = append(out, Candidate{
			SourceList:    feedURL,
			Title:         title,
			Link:          link,
			ListTimeGuess: ts,
			ListTimeRaw:   raw,
		})
	})
	return out, nil
}
