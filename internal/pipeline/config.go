// =============================================================================
// config.go - 環境変数ベースの設定
// =============================================================================
//
// 設定は .env（godotenv）→ 環境変数（caarlos0/env）の順で読み込みます。
// ここにあるのは「データ」であって挙動ではありません。コアの各コンポーネント
// は Config と基準時刻を明示的に受け取り、グローバル状態には依存しません。
//
// =============================================================================
package pipeline

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config はラン全体の設定。
type Config struct {
	// 収集ウィンドウ（直近N時間に公開された記事のみ報告する）
	LookbackHours int `env:"LOOKBACK_HOURS" envDefault:"24"`

	// 基準タイムゾーン
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Tokyo"`

	// リクエスト間隔（一覧/フィード用と記事用で別）
	SleepList    time.Duration `env:"SLEEP_LIST" envDefault:"400ms"`
	SleepArticle time.Duration `env:"SLEEP_ARTICLE" envDefault:"600ms"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"25s"`

	// 同時取得数（リモートホスト単位のレート制御は Fetcher が別途行う）
	HarvestWorkers int `env:"HARVEST_WORKERS" envDefault:"4"`
	ExtractWorkers int `env:"EXTRACT_WORKERS" envDefault:"4"`

	// 本文がこの文字数に満たない間は次の抽出ステージを試す
	MinBodyChars int `env:"MIN_BODY_CHARS" envDefault:"200"`

	// 要約に渡す本文の先頭文字数上限
	ArticleCharsLimit int `env:"ARTICLE_CHARS_LIMIT" envDefault:"9000"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-5-mini"`

	OutDir string `env:"OUT_DIR" envDefault:"out"`

	// 追加ソース/ルール定義のYAMLファイル（任意）
	SourcesFile string `env:"SOURCES_FILE"`

	UserAgent    string `env:"USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"`
	AltUserAgent string `env:"ALT_USER_AGENT" envDefault:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`

	// メール配信（任意。未設定なら送らない）
	EmailFrom     string `env:"EMAIL_FROM"`
	EmailPassword string `env:"EMAIL_PASSWORD"`
	EmailTo       string `env:"EMAIL_TO"`

	// Notionクリップ（任意）
	NotionToken      string `env:"NOTION_TOKEN"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID"`
}

// Load は .env と環境変数から Config を構築する。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Lookback は LookbackHours を Duration として返す。
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// Location は基準タイムゾーンを返す。tzdbが引けない環境ではJST固定にする。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
