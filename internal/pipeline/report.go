// =============================================================================
// report.go - 収集結果のファイル出力（CSV / Markdown / JSON）
// =============================================================================
package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-runewidth"
)

// ReportWriter は1ラン分の成果物をOUT_DIR配下へ書き出す。
// ファイル名は実行日とウィンドウ幅を含む（例: 2025-12-18_news_24h_fulltext.csv）。
type ReportWriter struct {
	dir      string
	now      time.Time
	lookback time.Duration
}

func NewReportWriter(cfg *Config, now time.Time) *ReportWriter {
	return &ReportWriter{dir: cfg.OutDir, now: now, lookback: cfg.Lookback()}
}

func (w *ReportWriter) path(ext string) string {
	name := fmt.Sprintf("%s_news_%dh_fulltext.%s",
		w.now.Format("2006-01-02"), int(w.lookback.Hours()), ext)
	return filepath.Join(w.dir, name)
}

func (w *ReportWriter) ensureDir() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	return nil
}

// WriteCSV は全レコードをCSVへ書く。戻り値は書いたファイルパス。
func (w *ReportWriter) WriteCSV(records []ArticleRecord) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.path("csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"published_at", "published_raw", "title", "url", "source_list", "body_chars", "excerpt", "summary"}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			formatTime(r.PublishedAt),
			r.PublishedRaw,
			r.Title,
			r.URL,
			r.SourceList,
			fmt.Sprintf("%d", r.BodyChars),
			r.Excerpt,
			r.Summary,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}

// WriteMarkdown は人間が読む用のダイジェストを書く。
func (w *ReportWriter) WriteMarkdown(records []ArticleRecord, srcErrs []SourceError) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.path("md")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create markdown: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# ニュースダイジェスト %s（直近%d時間）\n\n",
		w.now.Format("2006-01-02"), int(w.lookback.Hours()))
	fmt.Fprintf(f, "収集件数: %d\n\n", len(records))

	for _, r := range records {
		// 横幅基準の切り詰め（全角まじりタイトルが表を壊さないように）
		title := runewidth.Truncate(r.Title, 80, "…")
		fmt.Fprintf(f, "## %s\n\n", title)
		fmt.Fprintf(f, "- 公開: %s\n", formatTime(r.PublishedAt))
		fmt.Fprintf(f, "- URL: %s\n", r.URL)
		fmt.Fprintf(f, "- 出所: %s（%s）\n", SourceHost(r.URL), r.SourceList)
		fmt.Fprintf(f, "- 本文: %d文字\n\n", r.BodyChars)
		if r.Summary != "" {
			fmt.Fprintf(f, "%s\n\n", r.Summary)
		} else if r.Excerpt != "" {
			fmt.Fprintf(f, "> %s\n\n", r.Excerpt)
		}
	}

	if len(srcErrs) > 0 {
		fmt.Fprintf(f, "## 取得できなかったソース\n\n")
		for _, e := range srcErrs {
			fmt.Fprintf(f, "- %s: %v\n", e.Source, e.Err)
		}
	}
	return path, nil
}

// WriteJSON は機械処理用に全量を書く。
func (w *ReportWriter) WriteJSON(result *RunResult) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := w.path("json")

	type errView struct {
		Source string `json:"source"`
		Error  string `json:"error"`
	}
	view := struct {
		GeneratedAt time.Time       `json:"generatedAt"`
		Records     []ArticleRecord `json:"records"`
		Errors      []errView       `json:"errors,omitempty"`
	}{GeneratedAt: w.now, Records: result.Records}
	for _, e := range result.Errors {
		view.Errors = append(view.Errors, errView{Source: e.Source, Error: e.Err.Error()})
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write json: %w", err)
	}
	return path, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
