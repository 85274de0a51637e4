// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルは daily-news パイプライン全体で使用するデータ構造を定義します。
//
// 【このファイルで定義している型】
//   - Candidate:     一覧/フィードから拾った記事候補（本文取得前）
//   - ArticleRecord: 最終的にレポートされる記事レコード
//   - SourceError:   ソース単位の失敗（ランは止めない）
//
// =============================================================================
package pipeline

import "time"

// -----------------------------------------------------------------------------
// Candidate - 記事候補
// -----------------------------------------------------------------------------
//
// 一覧ページまたはフィードの1カード/1エントリから生成される暫定レコード。
// 候補段階のタイトル重複排除を通ったものだけが本文抽出に進む。
//
// ListTimeGuess は一覧側から推測した公開時刻。ゼロ値は「不明」を意味する。
// ListTimeRaw はその推測の元になったテキスト（監査/デバッグ用）。
type Candidate struct {
	SourceList    string    `json:"sourceList"`
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	ListTimeGuess time.Time `json:"listTimeGuess,omitzero"`
	ListTimeRaw   string    `json:"listTimeRaw,omitempty"`
}

// -----------------------------------------------------------------------------
// ArticleRecord - 最終レコード
// -----------------------------------------------------------------------------
//
// lookback ウィンドウを通過した記事の確定レコード。作成後は書き換えない。
// 同一タイトルのより新しいレコードが現れた場合は丸ごと置き換えられる。
type ArticleRecord struct {
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"publishedAt"`
	PublishedRaw string    `json:"publishedRaw,omitempty"`
	SourceList   string    `json:"sourceList,omitempty"`
	BodyChars    int       `json:"bodyChars"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Summary      string    `json:"summary,omitempty"`
}

// SourceError は1ソースの収集失敗を表す。ランは継続し、最後にまとめて報告される。
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error { return e.Err }
