// =============================================================================
// fetch.go - HTTP取得（403リトライ・文字コード補正・礼儀正しいレート制御）
// =============================================================================
//
// すべてのネットワーク取得はここを通ります。
//
//   - 403 にはUser-Agentを変えて一度だけ再試行（それ以上はしない）
//   - サーバ宣言の文字コードが無い/明らかに誤り（非ASCII本文なのに
//     ASCII/Latin-1宣言）の場合は本文からエンコーディングを推定
//   - リクエスト種別（一覧/フィード/記事）ごと + リモートホストごとの
//     レートリミッタで相手サイトを叩きすぎない
//   - 全リクエストにタイムアウトとcontextキャンセルが効く
//
// 取得失敗は「そのソースが空だった」として扱われ、ランを止めない。
//
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

// RequestClass はレート制御上のリクエスト種別。
type RequestClass int

const (
	ClassList RequestClass = iota
	ClassFeed
	ClassArticle
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptXML  = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

	maxBodyBytes = 10 * 1024 * 1024
)

// Fetcher は全取得経路を束ねるHTTPクライアント。
type Fetcher struct {
	client       *http.Client
	userAgent    string
	altUserAgent string // 403時の再試行用
	classLimits  map[RequestClass]*rate.Limiter
	hostLimits   map[string]*rate.Limiter
	hostRate     rate.Limit
	mu           sync.Mutex
}

// NewFetcher creates a Fetcher. 種別ごとの間隔はゼロ可（=制限なし）。
func NewFetcher(cfg *Config) *Fetcher {
	classLimits := map[RequestClass]*rate.Limiter{
		ClassList:    limiterFor(cfg.SleepList),
		ClassFeed:    limiterFor(cfg.SleepList),
		ClassArticle: limiterFor(cfg.SleepArticle),
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent:    cfg.UserAgent,
		altUserAgent: cfg.AltUserAgent,
		classLimits:  classLimits,
		hostLimits:   make(map[string]*rate.Limiter),
		hostRate:     rate.Every(time.Second),
	}
}

func limiterFor(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func (f *Fetcher) hostLimiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hostLimits[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.hostRate, 2)
	f.hostLimits[host] = l
	return l
}

// Fetch はURLを取得し、UTF-8に正規化した本文とContent-Typeを返す。
// 非2xxはエラー（呼び出し側は「利用不可」として扱う）。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, class RequestClass, wantXML bool) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}

	if err := f.classLimits[class].Wait(ctx); err != nil {
		return nil, "", err
	}
	if err := f.hostLimiter(NormalizeHost(u.Host)).Wait(ctx); err != nil {
		return nil, "", err
	}

	resp, err := f.do(ctx, rawURL, f.userAgent, wantXML)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode == http.StatusForbidden {
		// 403対策: UAを変えて一度だけ再試行
		resp.Body.Close()
		resp, err = f.do(ctx, rawURL, f.altUserAgent, wantXML)
		if err != nil {
			return nil, "", err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("GET %s: status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	decoded := decodeBody(body, contentType)
	return decoded, contentType, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL, userAgent string, wantXML bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", rawURL)
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	if wantXML {
		req.Header.Set("Accept", acceptXML)
	} else {
		req.Header.Set("Accept", acceptHTML)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// decodeBody は本文をUTF-8に変換する。PDF等のバイナリはそのまま返す。
func decodeBody(body []byte, contentType string) []byte {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && !strings.HasPrefix(mediaType, "text/") &&
		!strings.Contains(mediaType, "xml") && !strings.Contains(mediaType, "html") &&
		!strings.Contains(mediaType, "json") {
		return body
	}

	declared := strings.ToLower(params["charset"])
	suspect := declared == "" || declared == "ascii" || declared == "us-ascii" ||
		declared == "iso-8859-1" || declared == "latin-1"

	if suspect && hasNonASCII(body) {
		// 宣言が怪しいので本文から推定（meta/BOM/バイト頻度）
		enc, _, _ := charset.DetermineEncoding(body, contentType)
		if out, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), enc.NewDecoder())); err == nil {
			return out
		}
		return body
	}

	if declared != "" && declared != "utf-8" && declared != "utf8" {
		if enc, err := htmlindex.Get(declared); err == nil && enc != nil {
			if out, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), enc.NewDecoder())); err == nil {
				return out
			}
		}
	}
	return body
}

func hasNonASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return true
		}
	}
	return false
}
