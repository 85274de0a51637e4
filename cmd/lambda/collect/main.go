// =============================================================================
// Lambda: collect-news
// =============================================================================
//
// 定時実行で全ソースから記事を収集し、Notion DBに保存するLambda関数。
// EventBridgeのスケジュールから毎朝叩く想定。
//
// 環境変数:
//   - NOTION_TOKEN:       Notion API Token (必須)
//   - NOTION_DATABASE_ID: NotionデータベースID (必須)
//   - LOOKBACK_HOURS:     何時間以内の記事を取得するか (デフォルト: 24)
//   - EMAIL_FROM:         ダイジェスト送信元 (任意)
//   - EMAIL_PASSWORD:     Gmailアプリパスワード (任意)
//   - EMAIL_TO:           ダイジェスト送信先 (任意)
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/Kenta-Komiyama/daily-news/internal/pipeline"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Collected  int    `json:"collected"`
	Clipped    int    `json:"clipped"`
	Failed     int    `json:"failedSources"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Info().Msg("starting collect-news lambda")

	cfg, err := pipeline.Load()
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	now := time.Now().In(cfg.Location())

	p, err := pipeline.New(cfg, now, log)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	result, err := p.Run(ctx)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	clipped := 0
	if cfg.NotionToken != "" && cfg.NotionDatabaseID != "" {
		clipper, err := pipeline.NewNotionClipper(cfg, log)
		if err != nil {
			return Response{StatusCode: 500, Message: err.Error()}, err
		}
		clipped = clipper.ClipAll(ctx, result.Records)
	}

	// メール設定があればダイジェストも送る（失敗してもLambdaは成功扱い）
	if cfg.EmailFrom != "" && len(result.Records) > 0 {
		if sender, err := pipeline.NewEmailSender(cfg, log); err == nil {
			if err := sender.SendDigest(now, cfg.Lookback(), result.Records); err != nil {
				log.Warn().Err(err).Msg("digest mail failed")
			}
		}
	}

	msg := fmt.Sprintf("collected %d articles (%d clipped, %d sources failed)",
		len(result.Records), clipped, len(result.Errors))
	log.Info().Msg(msg)

	return Response{
		StatusCode: 200,
		Message:    msg,
		Collected:  len(result.Records),
		Clipped:    clipped,
		Failed:     len(result.Errors),
	}, nil
}

func main() {
	lambda.Start(Handler)
}
