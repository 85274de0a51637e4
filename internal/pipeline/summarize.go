// =============================================================================
// summarize.go - 記事本文の要約
// =============================================================================
//
// OpenAI APIで日本語の箇条書き要約を作ります。APIキーが無い・呼び出しに
// 失敗した場合は、先頭文と頻出語によるローカル要約へ落とし、ランは
// 絶対に止めません。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer は本文から短い要約を作る。
type Summarizer interface {
	Summarize(ctx context.Context, title, body string) (string, error)
}

// OpenAISummarizer はChat Completionベースの要約器。
type OpenAISummarizer struct {
	client     *openai.Client
	model      string
	charsLimit int
}

// NewOpenAISummarizer はAPIキーが空のときnilを返す（呼び出し側でローカルへ）。
func NewOpenAISummarizer(cfg *Config) *OpenAISummarizer {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return &OpenAISummarizer{
		client:     openai.NewClient(cfg.OpenAIAPIKey),
		model:      cfg.OpenAIModel,
		charsLimit: cfg.ArticleCharsLimit,
	}
}

const summarySystemPrompt = "あなたは日本語のテック系ニュース編集者です。" +
	"与えられた記事本文を、事実ベースで簡潔な日本語の箇条書きに要約してください。" +
	"形式: 「- ポイント:」で始まる箇条書きを3行、続けて「- 影響/示唆:」を1行。" +
	"本文に無い情報を足さないこと。"

func (s *OpenAISummarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	body = truncateRunes(body, s.charsLimit)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("タイトル: %s\n\n本文:\n%s", title, body)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai summarize: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// --- ローカル要約（APIなし/失敗時のフォールバック） ---

var reSentenceSplit = regexp.MustCompile(`。|\.\s|\n`)

// reKeyword は日本語・英語の「語らしい」並びだけを拾う。
var reKeyword = regexp.MustCompile(`[A-Za-z][A-Za-z\-]{2,}|[ァ-ヴー]{2,}|[一-龥]{2,}`)

var keywordStop = map[string]bool{
	"https": true, "http": true, "www": true, "com": true,
}

// LocalSummary は先頭3文 + 頻出語でそれらしい要約を組み立てる。
func LocalSummary(title, body string) string {
	sentences := []string{}
	for _, s := range reSentenceSplit.Split(body, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, s)
		if len(sentences) == 3 {
			break
		}
	}

	counts := map[string]int{}
	for _, w := range reKeyword.FindAllString(body, -1) {
		lw := strings.ToLower(w)
		if keywordStop[lw] {
			continue
		}
		counts[w]++
	}
	type kw struct {
		word  string
		count int
	}
	var kws []kw
	for w, c := range counts {
		kws = append(kws, kw{w, c})
	}
	sort.Slice(kws, func(i, j int) bool {
		if kws[i].count != kws[j].count {
			return kws[i].count > kws[j].count
		}
		return kws[i].word < kws[j].word
	})
	if len(kws) > 5 {
		kws = kws[:5]
	}
	words := make([]string, 0, len(kws))
	for _, k := range kws {
		words = append(words, k.word)
	}

	var sb strings.Builder
	for _, s := range sentences {
		sb.WriteString("- ポイント: ")
		sb.WriteString(truncateRunes(s, 120))
		sb.WriteString("\n")
	}
	if len(words) > 0 {
		sb.WriteString("- 影響/示唆: 主要キーワード: ")
		sb.WriteString(strings.Join(words, ", "))
		sb.WriteString("\n")
	}
	sb.WriteString("- 出典: ")
	sb.WriteString(title)
	return sb.String()
}
