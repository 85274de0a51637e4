// =============================================================================
// pipeline.go - 収集ラン全体のオーケストレーション
// =============================================================================
//
// 1ランの流れ:
//
//   1. 収穫: 全フィード・全一覧ページを並列に取得して Candidate を集める。
//      ソース単位の失敗は記録して先へ進む（1サイト死んでもランは死なない）
//   2. 一次重複排除: 一覧側の推定時刻でタイトル畳み
//   3. 精読: 記事ページを並列に開き、本文・確定時刻・正規URLを掘る。
//      ウィンドウ外と時刻不明はここで落ちる
//   4. 要約: OpenAI、失敗したらローカル要約
//   5. 最終重複排除と新しい順ソート
//
// 共有マップ（重複排除）は必ずワーカープール完了後に触る。
//
// =============================================================================
package pipeline

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pipeline は1ラン分の収集器。New で組み立て、Run を一度呼ぶ。
type Pipeline struct {
	cfg        *Config
	now        time.Time
	lookback   time.Duration
	fetcher    *Fetcher
	sources    *SourceSet
	summarizer Summarizer
	log        zerolog.Logger
}

// RunResult は1ランの成果物。Errors は致命でないソース単位の失敗。
type RunResult struct {
	Records []ArticleRecord
	Errors  []SourceError
}

// New は設定からパイプラインを組み立てる。now が基準時刻になる。
func New(cfg *Config, now time.Time, log zerolog.Logger) (*Pipeline, error) {
	sources, err := LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		now:      now.In(cfg.Location()),
		lookback: cfg.Lookback(),
		fetcher:  NewFetcher(cfg),
		sources:  sources,
		log:      log,
	}
	if s := NewOpenAISummarizer(cfg); s != nil {
		p.summarizer = s
	}
	return p, nil
}

// Run は収集ランを実行する。コンテキストキャンセルのみがエラーになる。
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	candidates, srcErrs := p.harvest(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates = DedupeCandidates(candidates)
	p.log.Info().Int("candidates", len(candidates)).Msg("harvest done")

	records := p.extractAll(ctx, candidates, &srcErrs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records = DedupeRecords(records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})

	p.log.Info().
		Int("records", len(records)).
		Int("sourceErrors", len(srcErrs)).
		Msg("run done")
	return &RunResult{Records: records, Errors: srcErrs}, nil
}

// harvest は全フィード・全一覧を並列取得して候補を集める。
func (p *Pipeline) harvest(ctx context.Context) ([]Candidate, []SourceError) {
	var (
		mu      sync.Mutex
		all     []Candidate
		srcErrs []SourceError
	)
	collect := func(source string, items []Candidate, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			srcErrs = append(srcErrs, SourceError{Source: source, Err: err})
			p.log.Warn().Str("source", source).Err(err).Msg("source failed")
			return
		}
		all = append(all, items...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.HarvestWorkers)

	for _, feedURL := range p.sources.FeedPages {
		g.Go(func() error {
			items, err := p.FetchFeedItems(gctx, feedURL)
			collect(feedURL, items, err)
			return nil
		})
	}
	for _, pageURL := range p.sources.ListPages {
		g.Go(func() error {
			items, err := p.CollectFromList(gctx, pageURL)
			collect(pageURL, items, err)
			return nil
		})
	}
	_ = g.Wait()
	return all, srcErrs
}

// extractAll は候補ごとに記事ページを精読し、ウィンドウ内の確定レコードを返す。
func (p *Pipeline) extractAll(ctx context.Context, candidates []Candidate, srcErrs *[]SourceError) []ArticleRecord {
	var (
		mu      sync.Mutex
		records []ArticleRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ExtractWorkers)

	for _, cand := range candidates {
		g.Go(func() error {
			rec, err := p.resolve(gctx, cand)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				*srcErrs = append(*srcErrs, SourceError{Source: cand.Link, Err: err})
				p.log.Warn().Str("url", cand.Link).Err(err).Msg("article failed")
				return nil
			}
			if rec != nil {
				records = append(records, *rec)
			}
			return nil
		})
	}
	_ = g.Wait()
	return records
}

// resolve は1候補を確定レコードへ変換する。nil, nil はウィンドウ外などの静かな棄却。
func (p *Pipeline) resolve(ctx context.Context, cand Candidate) (*ArticleRecord, error) {
	art, err := p.ExtractArticle(ctx, cand)
	if err != nil {
		return nil, err
	}

	// 記事側で確定した時刻が常に一覧側の推定より優先
	publishedAt := art.PublishedAt
	publishedRaw := art.PublishedRaw
	if publishedAt.IsZero() {
		publishedAt = cand.ListTimeGuess
		publishedRaw = cand.ListTimeRaw
	}
	if !WithinLookback(publishedAt, p.now, p.lookback) {
		return nil, nil
	}

	finalURL := cand.Link
	if art.CanonicalURL != "" {
		finalURL = art.CanonicalURL
	}

	title := cand.Title
	if t := art.Title; t != "" {
		title = t
	}

	excerpt := truncateRunes(art.Body, 200)

	summary := ""
	if art.Body != "" {
		if p.summarizer != nil {
			summary, err = p.summarizer.Summarize(ctx, title, art.Body)
			if err != nil {
				p.log.Warn().Str("url", finalURL).Err(err).Msg("summarize failed, using local summary")
				summary = ""
			}
		}
		if summary == "" {
			summary = LocalSummary(title, art.Body)
		}
	}

	return &ArticleRecord{
		Title:        title,
		URL:          finalURL,
		PublishedAt:  publishedAt,
		PublishedRaw: publishedRaw,
		SourceList:   cand.SourceList,
		BodyChars:    len([]rune(art.Body)),
		Excerpt:      excerpt,
		Summary:      summary,
	}, nil
}

// SourceHost はレコードの出所ホスト（レポート表示用）。
func SourceHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return NormalizeHost(u.Host)
}
