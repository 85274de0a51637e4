// =============================================================================
// dedupe.go - タイトルベースの時系列重複排除
// =============================================================================
//
// 同じ記事が複数の一覧・フィードから別URLで流れてくるため、正規化タイトルを
// キーに1本へ畳みます。タイムスタンプを持つ方が常に勝ち、両方持つなら
// 新しい方が勝つ。同時刻・両方未知は先勝ち（入力順を保存する）。
//
// =============================================================================
package pipeline

// DedupeByTitle は正規化タイトルで畳み、各グループの代表を入力順で返す。
// later が勝つ条件: later がタイムスタンプを持ち、かつ現代表が持たないか古い。
func DedupeByTitle[T any](items []T, key func(T) string, ts func(T) (int64, bool)) []T {
	type slot struct {
		t    int64
		hasT bool
	}
	best := map[string]*slot{}
	order := []string{}
	kept := map[string]T{}

	for _, item := range items {
		k := NormalizeTitle(key(item))
		if k == "" {
			continue
		}
		t, hasT := ts(item)

		cur, ok := best[k]
		if !ok {
			best[k] = &slot{t: t, hasT: hasT}
			order = append(order, k)
			kept[k] = item
			continue
		}
		if hasT && (!cur.hasT || t > cur.t) {
			cur.t = t
			cur.hasT = true
			kept[k] = item
		}
	}

	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, kept[k])
	}
	return out
}

// DedupeCandidates は一覧側の推定時刻で Candidate を畳む。
func DedupeCandidates(items []Candidate) []Candidate {
	return DedupeByTitle(items,
		func(c Candidate) string { return c.Title },
		func(c Candidate) (int64, bool) {
			if c.ListTimeGuess.IsZero() {
				return 0, false
			}
			return c.ListTimeGuess.UnixNano(), true
		})
}

// DedupeRecords は確定公開時刻で ArticleRecord を畳む。
func DedupeRecords(items []ArticleRecord) []ArticleRecord {
	return DedupeByTitle(items,
		func(r ArticleRecord) string { return r.Title },
		func(r ArticleRecord) (int64, bool) {
			if r.PublishedAt.IsZero() {
				return 0, false
			}
			return r.PublishedAt.UnixNano(), true
		})
}
