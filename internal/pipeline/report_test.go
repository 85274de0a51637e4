package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []ArticleRecord {
	return []ArticleRecord{
		{
			Title:       "生成AIの新手法",
			URL:         "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html",
			PublishedAt: referenceNow.Add(-3 * time.Hour),
			SourceList:  "https://www.itmedia.co.jp/aiplus/spv/",
			BodyChars:   1234,
			Excerpt:     "この記事は…",
			Summary:     "- ポイント: 新手法の解説\n- 影響/示唆: 精度向上",
		},
		{
			Title:       "Model, with \"quotes\" and commas",
			URL:         "https://example.com/news/2",
			PublishedAt: referenceNow.Add(-10 * time.Hour),
			BodyChars:   500,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	cfg := &Config{OutDir: t.TempDir(), LookbackHours: 24}
	w := NewReportWriter(cfg, referenceNow)

	path, err := w.WriteCSV(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, "2025-12-18_news_24h_fulltext.csv", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // ヘッダ + 2レコード
	assert.Equal(t, "published_at", rows[0][0])
	assert.Equal(t, "生成AIの新手法", rows[1][2])
	// CSVエスケープが必要なタイトルも往復できる
	assert.Equal(t, "Model, with \"quotes\" and commas", rows[2][2])
}

func TestWriteMarkdown(t *testing.T) {
	cfg := &Config{OutDir: t.TempDir(), LookbackHours: 24}
	w := NewReportWriter(cfg, referenceNow)

	srcErrs := []SourceError{{Source: "https://dead.example/feed", Err: fmt.Errorf("status 404")}}
	path, err := w.WriteMarkdown(sampleRecords(), srcErrs)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(raw)

	assert.Contains(t, md, "# ニュースダイジェスト 2025-12-18（直近24時間）")
	assert.Contains(t, md, "## 生成AIの新手法")
	assert.Contains(t, md, "itmedia.co.jp")
	assert.Contains(t, md, "取得できなかったソース")
	assert.Contains(t, md, "https://dead.example/feed")
}

func TestWriteJSON(t *testing.T) {
	cfg := &Config{OutDir: t.TempDir(), LookbackHours: 24}
	w := NewReportWriter(cfg, referenceNow)

	result := &RunResult{Records: sampleRecords()}
	path, err := w.WriteJSON(result)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"records"`)
	assert.Contains(t, string(raw), "生成AIの新手法")
}
