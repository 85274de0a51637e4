// =============================================================================
// datetime.go - 日付テキストの解釈と lookback 判定
// =============================================================================
//
// 一覧ページ/フィード/記事メタデータに現れる日付表現を、基準タイムゾーン
// （デフォルト JST）の絶対時刻に変換します。
//
// 【解釈の優先順位（先勝ち・固定）】
//   1. 相対表現（"3時間前", "2 hours ago", "yesterday" など）
//   2. 単独の MM/DD（基準時刻の年とみなす）
//   3. 汎用パーサ dateparse（ISO-8601 / RFC-822 / 一般的な英語表記）
//   4. 絶対表記パターン（YYYY-MM-DD, YYYY/MM/DD, YYYY年MM月DD日,
//      Month DD, YYYY / DD Month YYYY）
//
// 相対表現は絶対表記と衝突しないため最初に判定する。単独 MM/DD だけは
// 汎用パーサが誤解釈しうるので先に拾う。どのパターンにも一致しない場合は
// ゼロ値を返し、呼び出し側は「時刻不明」として扱う（"今" とはみなさない）。
//
// =============================================================================
package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type relUnit int

const (
	relMinutes relUnit = iota
	relHours
	relDays
	relYesterday
)

var relPatterns = []struct {
	re   *regexp.Regexp
	unit relUnit
}{
	{regexp.MustCompile(`(\d+)\s*分前`), relMinutes},
	{regexp.MustCompile(`(\d+)\s*時間前`), relHours},
	{regexp.MustCompile(`(\d+)\s*日前`), relDays},
	{regexp.MustCompile(`(?i)(\d+)\s*min(?:ute)?s?\s*ago`), relMinutes},
	{regexp.MustCompile(`(?i)(\d+)\s*hours?\s*ago`), relHours},
	{regexp.MustCompile(`(?i)(\d+)\s*days?\s*ago`), relDays},
	{regexp.MustCompile(`(?i)\byesterday\b`), relYesterday},
}

var (
	reBareMonthDay = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	reYMD          = regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
	reYMDKanji     = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	reMonthDay     = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	reMonthDDYYYY  = regexp.MustCompile(`\b([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})`)
	reDDMonthYYYY  = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]{3,9})\.?\s+(\d{4})`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "sept": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDateTime は自由形式の日付テキストを基準タイムゾーンの絶対時刻に変換する。
// どのパターンにも一致しなければゼロ値を返す。
func ParseDateTime(text string, now time.Time) time.Time {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}
	}
	loc := now.Location()

	for _, p := range relPatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if p.unit == relYesterday {
			return now.AddDate(0, 0, -1)
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch p.unit {
		case relMinutes:
			return now.Add(-time.Duration(n) * time.Minute)
		case relHours:
			return now.Add(-time.Duration(n) * time.Hour)
		case relDays:
			return now.AddDate(0, 0, -n)
		}
	}

	// 単独 MM/DD は汎用パーサより先に、基準年の日付として解釈する
	if m := reBareMonthDay.FindStringSubmatch(s); m != nil {
		if d, ok := dateFrom(now.Year(), atoi(m[1]), atoi(m[2]), loc); ok {
			return d
		}
	}

	if d := parseGeneral(s, loc); !d.IsZero() {
		return d.In(loc)
	}

	for _, re := range []*regexp.Regexp{reYMD, reYMDKanji} {
		if m := re.FindStringSubmatch(s); m != nil {
			if d, ok := dateFrom(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc); ok {
				return d
			}
		}
	}
	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		if d, ok := dateFrom(now.Year(), atoi(m[1]), atoi(m[2]), loc); ok {
			return d
		}
	}
	if m := reMonthDDYYYY.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNames[strings.ToLower(m[1])]; ok {
			if d, ok := dateFrom(atoi(m[3]), int(mon), atoi(m[2]), loc); ok {
				return d
			}
		}
	}
	if m := reDDMonthYYYY.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNames[strings.ToLower(m[2])]; ok {
			if d, ok := dateFrom(atoi(m[3]), int(mon), atoi(m[1]), loc); ok {
				return d
			}
		}
	}

	return time.Time{}
}

// parseGeneral は dateparse で全文を解釈する。dateparse は一部の入力で
// panic することが知られているため回収する。
func parseGeneral(s string, loc *time.Location) (t time.Time) {
	defer func() {
		if recover() != nil {
			t = time.Time{}
		}
	}()
	parsed, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func dateFrom(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date は 2月31日 などを繰り上げて正規化してしまうので弾く
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// WithinLookback は lookback 判定の唯一の述語。
// 時刻不明（ゼロ値）は常に false。境界は閾値ちょうどを含む。
func WithinLookback(ts, now time.Time, lookback time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.Before(now.Add(-lookback))
}
