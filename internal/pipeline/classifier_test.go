package pipeline

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestScoreLink(t *testing.T) {
	rules := DefaultRules()

	article := ScoreLink("https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html", "www.itmedia.co.jp", rules)
	author := ScoreLink("https://www.itmedia.co.jp/author/yamada/", "www.itmedia.co.jp", rules)
	category := ScoreLink("https://www.itmedia.co.jp/category/ai/", "www.itmedia.co.jp", rules)

	assert.Greater(t, article, author)
	assert.Greater(t, article, 0)
	// 除外パターンはincludeやパス深度では覆せない
	assert.Less(t, author, 0)
	assert.Less(t, category, 0)

	assert.Equal(t, -999, ScoreLink("mailto:a@example.com", "example.com", rules))
}

func TestScoreLinkCrossHostUsesLinkHostRules(t *testing.T) {
	rules := DefaultRules()

	// towardsdatascience.com の一覧から medium.com へのリンクは
	// medium.com 側のルールで採点される
	score := ScoreLink("https://medium.com/author/someone", "towardsdatascience.com", rules)
	assert.Less(t, score, 0)
}

func TestPickArticleAnchorGeneric(t *testing.T) {
	html := `<li>
		<a href="/author/yamada/">山田太郎</a>
		<a href="/aiplus/articles/2512/17/news123.html"><h2>生成AIの新手法</h2></a>
		<a href="#comments">コメント</a>
	</li>`
	doc := docFrom(t, html)

	got := PickArticleAnchor(doc.Find("li").First(), "https://www.itmedia.co.jp/aiplus/spv/", DefaultRules())
	assert.Equal(t, "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html", got)
}

func TestPickArticleAnchorGenericRejectsExcludedBest(t *testing.T) {
	// 候補がプロフィールリンクしかないカードは棄却される
	html := `<li><a href="/author/yamada/">山田太郎</a></li>`
	doc := docFrom(t, html)

	got := PickArticleAnchor(doc.Find("li").First(), "https://www.itmedia.co.jp/aiplus/spv/", DefaultRules())
	assert.Equal(t, "", got)
}

func TestPickArticleAnchorStrictSlug(t *testing.T) {
	rules := DefaultRules()

	html := `<div>
		<a href="/yamada">yamada</a>
		<a href="/yamada/articles/llm-abc123">記事タイトル</a>
	</div>`
	doc := docFrom(t, html)
	got := PickArticleAnchor(doc.Find("div").First(), "https://zenn.dev/topics/ai", rules)
	assert.Equal(t, "https://zenn.dev/yamada/articles/llm-abc123", got)

	// スラグ文法に合うアンカーが無ければ棄却
	html = `<div><a href="/yamada">yamada</a><a href="/topics/ai">ai</a></div>`
	doc = docFrom(t, html)
	got = PickArticleAnchor(doc.Find("div").First(), "https://zenn.dev/topics/ai", rules)
	assert.Equal(t, "", got)
}

func TestPickArticleAnchorExternalLinkCard(t *testing.T) {
	html := `<div class="entrylist-item">
		<a href="/entry/s/example.com/post">はてなエントリページ</a>
		<a class="entry-link" href="https://example.com/post">元記事タイトル</a>
	</div>`
	doc := docFrom(t, html)

	got := PickArticleAnchor(doc.Find("div").First(), "https://b.hatena.ne.jp/hotentry/it", DefaultRules())
	assert.Equal(t, "https://example.com/post", got)
}
