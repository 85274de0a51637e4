package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailSenderValidation(t *testing.T) {
	log := zerolog.Nop()

	_, err := NewEmailSender(&Config{}, log)
	assert.Error(t, err)

	_, err = NewEmailSender(&Config{EmailFrom: "a@gmail.com", EmailPassword: "pw"}, log)
	assert.Error(t, err)

	es, err := NewEmailSender(&Config{
		EmailFrom:     "a@gmail.com",
		EmailPassword: "pw",
		EmailTo:       "x@example.com, y@example.com",
	}, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"x@example.com", "y@example.com"}, es.to)
}

func TestBuildEmailMessage(t *testing.T) {
	es := &EmailSender{from: "a@gmail.com", to: []string{"x@example.com"}}
	msg := string(es.buildEmailMessage("件名テスト", "本文"))

	assert.True(t, strings.HasPrefix(msg, "From: a@gmail.com\r\n"))
	assert.Contains(t, msg, "To: x@example.com\r\n")
	assert.Contains(t, msg, "Subject: 件名テスト\r\n")
	// ヘッダと本文は空行で区切られる
	assert.Contains(t, msg, "\r\n\r\n本文")
}

func TestDigestBody(t *testing.T) {
	es := &EmailSender{from: "a@gmail.com", to: []string{"x@example.com"}}
	records := []ArticleRecord{
		{
			Title:       "生成AIの新手法",
			URL:         "https://www.itmedia.co.jp/aiplus/articles/2512/17/news123.html",
			PublishedAt: referenceNow.Add(-3 * time.Hour),
			Summary:     "- ポイント: 新手法の解説",
		},
		{
			Title:   "要約なしの記事",
			URL:     "https://example.com/news/2",
			Excerpt: "抜粋テキスト",
		},
	}

	body := es.digestBody(referenceNow, records)
	assert.Contains(t, body, "Total Articles: 2")
	assert.Contains(t, body, "[1] 生成AIの新手法")
	assert.Contains(t, body, "- ポイント: 新手法の解説")
	assert.Contains(t, body, "[2] 要約なしの記事")
	assert.Contains(t, body, "抜粋テキスト")
	assert.Contains(t, body, "itmedia.co.jp")
}
