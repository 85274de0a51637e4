// =============================================================================
// email.go - ダイジェストのメール配信（Gmail SMTP）
// =============================================================================
//
// 収集ランの結果をプレーンテキストで配信します。
//
//   EMAIL_FROM     - 送信元メールアドレス（Gmail）
//   EMAIL_PASSWORD - Gmailアプリパスワード（通常のパスワードではない！）
//   EMAIL_TO       - 送信先メールアドレス（カンマ区切りで複数可）
//
// Gmail SMTPはポート587（TLS）+ PLAIN認証。失敗時は指数バックオフで
// 2秒→4秒→8秒と待ちながら最大3回リトライします。
//
// =============================================================================
package pipeline

import (
	"fmt"
	"math"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailSender はGmail SMTP経由でダイジェストを送る。
type EmailSender struct {
	from     string
	password string
	to       []string
	smtpHost string
	smtpPort string
	log      zerolog.Logger
}

// NewEmailSender は設定からメール送信者を作る。
// 通常のGmailパスワードは使えない。必ずアプリパスワードを使うこと。
func NewEmailSender(cfg *Config, log zerolog.Logger) (*EmailSender, error) {
	if cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required")
	}
	if cfg.EmailPassword == "" {
		return nil, fmt.Errorf("EMAIL_PASSWORD is required (use Gmail App Password)")
	}
	if cfg.EmailTo == "" {
		return nil, fmt.Errorf("EMAIL_TO is required")
	}

	toList := strings.Split(cfg.EmailTo, ",")
	for i, addr := range toList {
		toList[i] = strings.TrimSpace(addr)
	}

	return &EmailSender{
		from:     cfg.EmailFrom,
		password: cfg.EmailPassword,
		to:       toList,
		smtpHost: "smtp.gmail.com",
		smtpPort: "587",
		log:      log,
	}, nil
}

// SendDigest は収集結果のダイジェストメールを送信する。
func (es *EmailSender) SendDigest(now time.Time, lookback time.Duration, records []ArticleRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to send")
	}

	subject := fmt.Sprintf("AI News Digest - %s (%d articles / %dh)",
		now.Format("2006-01-02"), len(records), int(lookback.Hours()))

	msg := es.buildEmailMessage(subject, es.digestBody(now, records))
	return es.sendWithRetry(msg)
}

// digestBody はプレーンテキストのメール本文を生成する。
func (es *EmailSender) digestBody(now time.Time, records []ArticleRecord) string {
	var sb strings.Builder

	sb.WriteString("AI News Digest\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format("2006-01-02 15:04:05")))
	sb.WriteString("========================================\n")
	sb.WriteString(fmt.Sprintf("Total Articles: %d\n", len(records)))
	sb.WriteString("========================================\n\n")

	for i, r := range records {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, r.Title))
		sb.WriteString(fmt.Sprintf("    Published: %s\n", formatTime(r.PublishedAt)))
		sb.WriteString(fmt.Sprintf("    Source: %s\n", SourceHost(r.URL)))
		sb.WriteString(fmt.Sprintf("    URL: %s\n\n", r.URL))

		if r.Summary != "" {
			for _, line := range strings.Split(r.Summary, "\n") {
				if strings.TrimSpace(line) != "" {
					sb.WriteString(fmt.Sprintf("    %s\n", line))
				}
			}
		} else if r.Excerpt != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", r.Excerpt))
		}
		sb.WriteString("\n----------------------------------------\n\n")
	}

	sb.WriteString("\nGenerated by daily-news\n")
	return sb.String()
}

// buildEmailMessage はRFC 5322準拠のメッセージを構築する。
// ヘッダーと本文は空行（\r\n）で区切る。
func (es *EmailSender) buildEmailMessage(subject, body string) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", es.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(es.to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return []byte(msg.String())
}

// sendWithRetry は指数バックオフでリトライしながら送信する。
func (es *EmailSender) sendWithRetry(msg []byte) error {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			wait := time.Duration(math.Pow(2, float64(i))) * time.Second
			es.log.Warn().Dur("wait", wait).Msg("retrying email send")
			time.Sleep(wait)
		}

		if err := es.send(msg); err == nil {
			return nil
		} else {
			lastErr = err
			es.log.Warn().Int("attempt", i+1).Err(err).Msg("email send failed")
		}
	}
	return fmt.Errorf("failed to send email after %d retries: %w", maxRetries, lastErr)
}

func (es *EmailSender) send(msg []byte) error {
	auth := smtp.PlainAuth("", es.from, es.password, es.smtpHost)
	addr := es.smtpHost + ":" + es.smtpPort

	if err := smtp.SendMail(addr, auth, es.from, es.to, msg); err != nil {
		return fmt.Errorf("SMTP send failed: %w (check EMAIL_PASSWORD is a Gmail App Password)", err)
	}
	return nil
}
