package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalSummary(t *testing.T) {
	body := "OpenAIは新しいモデルを発表した。ベンチマークで従来比2倍の性能を示した。" +
		"研究者はTransformerの改良が寄与したと説明している。" +
		"詳細は https://example.com/paper で公開される。"

	got := LocalSummary("OpenAIが新モデル発表", body)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "- ポイント: "))
	assert.Contains(t, got, "- 出典: OpenAIが新モデル発表")
	// URLの断片はキーワードにしない
	assert.NotContains(t, got, "https")
}

func TestLocalSummaryEmptyBody(t *testing.T) {
	got := LocalSummary("タイトルのみ", "")
	assert.Contains(t, got, "- 出典: タイトルのみ")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "日本語テ", truncateRunes("日本語テキスト", 4))
	assert.Equal(t, "short", truncateRunes("short", 100))
	assert.Equal(t, "nolimit", truncateRunes("nolimit", 0))
}

func TestNewOpenAISummarizerRequiresKey(t *testing.T) {
	assert.Nil(t, NewOpenAISummarizer(&Config{}))
	assert.NotNil(t, NewOpenAISummarizer(&Config{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-5-mini"}))
}
