// =============================================================================
// main.go - daily-news パイプラインのエントリーポイント
// =============================================================================
//
// AI関連ニュースの一覧ページ・フィードを巡回し、直近N時間に公開された記事を
// 本文つきで収集してレポート（CSV / Markdown / JSON）に書き出すCLIです。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   1. 設定読み込み（.env → 環境変数 → CLIフラグで上書き）
//   2. 収穫: 全一覧ページ・フィードから候補リンクを並列収集
//   3. 一次重複排除: 正規化タイトルで畳む
//   4. 精読: 記事ページを開き本文・確定時刻・正規URLを抽出
//   5. 要約: OpenAI（キー未設定ならローカル要約）
//   6. 出力: OUT_DIR にレポート3種、任意でメール配信・Notionクリップ
//
// =============================================================================
// 【CLIフラグ一覧】
// =============================================================================
//
//   -out             出力ディレクトリ（デフォルト: OUT_DIR または out）
//   -lookbackHours   収集ウィンドウ時間（デフォルト: LOOKBACK_HOURS または 24）
//   -sourcesFile     追加ソース/ルール定義のYAML
//   -sendEmail       収集後にダイジェストをメール送信
//   -notionClip      収集後にNotionデータベースへクリップ
//
// =============================================================================
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kenta-Komiyama/daily-news/internal/pipeline"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("run", uuid.NewString()[:8]).Logger()

	cfg, err := pipeline.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	outDir := flag.String("out", cfg.OutDir, "出力ディレクトリ")
	lookbackHours := flag.Int("lookbackHours", cfg.LookbackHours, "収集ウィンドウ（時間）")
	sourcesFile := flag.String("sourcesFile", cfg.SourcesFile, "追加ソース/ルール定義のYAML")
	sendEmail := flag.Bool("sendEmail", false, "収集後にダイジェストをメール送信")
	notionClip := flag.Bool("notionClip", false, "収集後にNotionデータベースへクリップ")
	flag.Parse()

	cfg.OutDir = *outDir
	cfg.LookbackHours = *lookbackHours
	cfg.SourcesFile = *sourcesFile

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now().In(cfg.Location())

	p, err := pipeline.New(cfg, now, log)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline setup failed")
	}

	result, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}

	writer := pipeline.NewReportWriter(cfg, now)
	if path, err := writer.WriteCSV(result.Records); err != nil {
		log.Error().Err(err).Msg("write csv failed")
	} else {
		log.Info().Str("path", path).Msg("csv written")
	}
	if path, err := writer.WriteMarkdown(result.Records, result.Errors); err != nil {
		log.Error().Err(err).Msg("write markdown failed")
	} else {
		log.Info().Str("path", path).Msg("markdown written")
	}
	if path, err := writer.WriteJSON(result); err != nil {
		log.Error().Err(err).Msg("write json failed")
	} else {
		log.Info().Str("path", path).Msg("json written")
	}

	if *sendEmail {
		sender, err := pipeline.NewEmailSender(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("email setup failed")
		}
		if err := sender.SendDigest(now, cfg.Lookback(), result.Records); err != nil {
			log.Error().Err(err).Msg("email send failed")
		} else {
			log.Info().Int("records", len(result.Records)).Msg("digest mailed")
		}
	}

	if *notionClip {
		clipper, err := pipeline.NewNotionClipper(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("notion setup failed")
		}
		clipped := clipper.ClipAll(ctx, result.Records)
		log.Info().Int("clipped", clipped).Msg("notion clip done")
	}
}
