package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPageHTML = `<html><body>
<ul>
  <li>
    <a href="/aiplus/articles/2512/17/news123.html"><h2>生成AIの新手法</h2></a>
    <time>3時間前</time>
  </li>
  <li>
    <a href="/aiplus/articles/2512/10/news045.html"><h2>先週の記事</h2></a>
    <time>2025/12/10</time>
  </li>
  <li>
    <a href="/aiplus/articles/2512/17/news456.html"><h2>時刻のないカード</h2></a>
  </li>
  <li>
    <a href="https://other.example/foreign"><h2>別ホストの記事</h2></a>
    <time>1時間前</time>
  </li>
</ul>
</body></html>`

func TestExtractListCandidates(t *testing.T) {
	doc := docFrom(t, listPageHTML)

	items := ExtractListCandidates(doc, "https://www.itmedia.co.jp/aiplus/spv/", DefaultRules(), referenceNow, 24*time.Hour)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, "生成AIの新手法", got.Title)
	assert.Equal(t, "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html", got.Link)
	assert.Equal(t, "https://www.itmedia.co.jp/aiplus/spv/", got.SourceList)
	assert.True(t, got.ListTimeGuess.Equal(referenceNow.Add(-3*time.Hour)))
	assert.Equal(t, "3時間前", got.ListTimeRaw)
}

func TestExtractListCandidatesAllowNoListTime(t *testing.T) {
	html := `<html><body><ul>
	  <li><a href="/atcl/nxt/news/18/01234/"><h2>時刻のないカード</h2></a></li>
	</ul></body></html>`
	doc := docFrom(t, html)

	// xtech.nikkei.com は一覧に時刻が出ないので時刻不明でも候補にする
	items := ExtractListCandidates(doc, "https://xtech.nikkei.com/top/it/", DefaultRules(), referenceNow, 24*time.Hour)
	require.Len(t, items, 1)
	assert.True(t, items[0].ListTimeGuess.IsZero())
}

func TestExtractListCandidatesDedupesTitleLinkPairs(t *testing.T) {
	// ネストしたコンテナで同じカードが2回ヒットしても候補は1つ
	html := `<html><body><div><ul>
	  <li><a href="/aiplus/articles/2512/17/news123.html"><h2>生成AIの新手法</h2></a><time>3時間前</time></li>
	</ul></div></body></html>`
	doc := docFrom(t, html)

	items := ExtractListCandidates(doc, "https://www.itmedia.co.jp/aiplus/spv/", DefaultRules(), referenceNow, 24*time.Hour)
	assert.Len(t, items, 1)
}

func TestBestTimeHintPicksMostRecentInWindow(t *testing.T) {
	hints := []string{"5時間前", "1時間前", "2024/01/01", "ただのテキスト"}
	got, raw := bestTimeHint(hints, referenceNow, 24*time.Hour)
	assert.True(t, got.Equal(referenceNow.Add(-time.Hour)))
	assert.Equal(t, "1時間前", raw)
}
