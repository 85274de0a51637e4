package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return &Pipeline{
		cfg:      &Config{MinBodyChars: 200, ArticleCharsLimit: 9000},
		now:      referenceNow,
		lookback: 24 * time.Hour,
		sources:  DefaultSources(),
	}
}

func TestExtractTitle(t *testing.T) {
	doc := docFrom(t, `<html><head>
	  <title>ページタイトル | サイト名</title>
	  <meta property="og:title" content="記事そのもののタイトル">
	</head><body></body></html>`)
	assert.Equal(t, "記事そのもののタイトル", extractTitle(doc))

	doc = docFrom(t, `<html><head><title>ページタイトル</title></head><body></body></html>`)
	assert.Equal(t, "ページタイトル", extractTitle(doc))
}

func TestExtractCanonical(t *testing.T) {
	p := testPipeline(t)

	// 同一ホストのcanonicalは採用
	doc := docFrom(t, `<html><head>
	  <link rel="canonical" href="https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html">
	</head></html>`)
	got := p.extractCanonical(doc, "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html?utm_source=x")
	assert.Equal(t, "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html", got)

	// 無許可の別ホストへの付け替えは拒否
	doc = docFrom(t, `<html><head>
	  <link rel="canonical" href="https://evil.example/steal">
	</head></html>`)
	got = p.extractCanonical(doc, "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html")
	assert.Equal(t, "", got)

	// クロスホスト許可のあるペアは採用（TDS → Medium）
	doc = docFrom(t, `<html><head>
	  <link rel="canonical" href="https://medium.com/p/abc123">
	</head></html>`)
	got = p.extractCanonical(doc, "https://towardsdatascience.com/some-post-abc123")
	assert.Equal(t, "https://medium.com/p/abc123", got)

	// canonicalが無ければog:url
	doc = docFrom(t, `<html><head>
	  <meta property="og:url" content="https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html">
	</head></html>`)
	got = p.extractCanonical(doc, "https://www.itmedia.co.jp/aiplus/spv/2512/17/news123.html")
	assert.Equal(t, "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html", got)
}

func TestExtractPublishedAtPicksLatest(t *testing.T) {
	p := testPipeline(t)

	doc := docFrom(t, `<html><head>
	  <meta property="article:published_time" content="2025-12-17T10:30:00+09:00">
	  <meta property="article:modified_time" content="2025-12-17T15:00:00+09:00">
	</head><body>
	  <time datetime="2025-12-16T09:00:00+09:00">12/16</time>
	</body></html>`)

	got, raw := p.extractPublishedAt(doc)
	assert.True(t, got.Equal(time.Date(2025, 12, 17, 15, 0, 0, 0, jst)), "got %v", got)
	assert.Equal(t, "2025-12-17T15:00:00+09:00", raw)
}

func TestExtractPublishedAtNextData(t *testing.T) {
	p := testPipeline(t)

	// SPAサイト: 可視DOMに時刻がなくてもサーバサイドpropsから救出する
	doc := docFrom(t, `<html><body>
	  <script id="__NEXT_DATA__" type="application/json">
	    {"props":{"pageProps":{"article":{"published_at":"2025-12-17T20:00:00+09:00","title":"x"}}}}
	  </script>
	</body></html>`)

	got, _ := p.extractPublishedAt(doc)
	assert.True(t, got.Equal(time.Date(2025, 12, 17, 20, 0, 0, 0, jst)), "got %v", got)
}

func TestJSONDateValues(t *testing.T) {
	raw := `{"@context":"https://schema.org","@graph":[
	  {"@type":"NewsArticle","datePublished":"2025-12-17T10:30:00+09:00",
	   "author":{"name":"x"},"dateModified":"2025-12-17T12:00:00+09:00"}]}`
	got := jsonDateValues(raw)
	assert.ElementsMatch(t, []string{
		"2025-12-17T10:30:00+09:00",
		"2025-12-17T12:00:00+09:00",
	}, got)

	assert.Empty(t, jsonDateValues("not json at all"))
}

func TestExtractBodyStages(t *testing.T) {
	p := testPipeline(t)

	long := strings.Repeat("この文は本文の一部です。", 10)
	html := `<html><body>
	  <nav><a href="/">ホーム</a></nav>
	  <article>
	    <p>` + long + `</p>
	    <p>` + long + `</p>
	    <p>短い</p>
	  </article>
	</body></html>`

	doc := docFrom(t, html)
	body := p.extractBody([]byte(html), doc, "https://example.com/news/1")

	require.NotEmpty(t, body)
	assert.Contains(t, body, "この文は本文の一部です。")
	// ナビゲーションは本文に入らない
	assert.NotContains(t, body, "ホーム")
	assert.GreaterOrEqual(t, len([]rune(body)), p.cfg.MinBodyChars)
}
