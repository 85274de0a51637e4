// =============================================================================
// rules.go - サイト別ルールテーブル
// =============================================================================
//
// 一覧ページから「記事ページ」だけを正しくたどるための宣言的ルール集。
// ホスト名ごとの if/else をコードに散らかす代わりに、正規化ホストを鍵とする
// テーブルを1回引いて、分類器はデータにパラメタライズされた単一の
// アルゴリズムとして動きます。
//
// 【特別扱いモード】
//   - ModeExternalLinkCard: アグリゲータ（はてブ等）。カード内の指定アンカーが
//     外部の記事本体を指すので、スコアリングを飛ばしてそれを採用する。
//   - ModeStrictSlugOnly: ナビゲーションが記事と同じDOM形状を持つサイト
//     （Zenn / KDnuggets）。スラグ文法に一致するパスだけを記事と認め、
//     一致しなければカードごと棄てる（スコアリングへのフォールバックなし）。
//
// パターンはすべて URL のパスにのみ適用する。クエリやフラグメントには
// 適用しない。
//
// =============================================================================
package pipeline

import "regexp"

// SpecialMode はホスト単位の特別扱い。1ホストにつき高々1つ。
type SpecialMode int

const (
	ModeNone SpecialMode = iota
	ModeExternalLinkCard
	ModeStrictSlugOnly
)

// SiteRule は正規化ホスト1つ分の分類ポリシー。
type SiteRule struct {
	// Include に一致するパスはスコア加点、Exclude に一致するパスは強制除外。
	Include []*regexp.Regexp
	Exclude []*regexp.Regexp

	Special SpecialMode

	// EntrySelector は ModeExternalLinkCard のとき採用するアンカーのセレクタ。
	EntrySelector string

	// SlugPatterns は ModeStrictSlugOnly のとき記事と認めるパス文法。
	SlugPatterns []*regexp.Regexp

	// AllowCrossHost は一覧ページと記事が別ホストに分かれるサイトで、
	// リンク先として受け入れるホストの集合（正規化済み）。
	AllowCrossHost map[string]bool

	// AllowNoListTime は一覧マークアップに時刻が無いことが分かっている
	// ホスト。候補段階の時刻要求を免除し、記事ページ側の時刻に委ねる。
	AllowNoListTime bool
}

// RuleTable は正規化ホスト → SiteRule の引き当て表。
type RuleTable map[string]*SiteRule

// RuleFor は正規化済みホストのルールを返す。未登録ホストはゼロルール。
func (t RuleTable) RuleFor(host string) *SiteRule {
	if r, ok := t[host]; ok {
		return r
	}
	return &SiteRule{}
}

// commonExcludes はホストに依らず記事でないと判断するパスパターン。
var commonExcludes = []*regexp.Regexp{
	regexp.MustCompile(`/author/`),
	regexp.MustCompile(`/users?/`),
	regexp.MustCompile(`/tag/`),
	regexp.MustCompile(`/category/`),
	regexp.MustCompile(`/topics/`),
	regexp.MustCompile(`/people/`),
}

func res(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// DefaultRules は既定の対象サイト群のルールを返す。
func DefaultRules() RuleTable {
	return RuleTable{
		"businessinsider.jp": {
			Include: res(`/post-\d+`),
			Exclude: res(`/author/`, `/category/`, `/tag/`),
		},
		"business.nikkei.com": {
			Include:         res(`/atcl/`),
			Exclude:         res(`/author/`, `/category/`, `/tag/`),
			AllowNoListTime: true,
		},
		"xtech.nikkei.com": {
			Include:         res(`/atcl/`),
			Exclude:         res(`/author/`, `/category/`, `/tag/`),
			AllowNoListTime: true,
		},
		"itmedia.co.jp": {
			Include: res(`/aiplus/articles/`),
			Exclude: res(`/author/`, `/rsslist`, `/category/`, `/tag/`),
		},
		"techno-edge.net": {
			Include: res(`/\d{4}/\d{2}/\d{2}/`, `/article/`),
			Exclude: res(`/tag/`, `/category/`, `/author/`),
		},
		"b.hatena.ne.jp": {
			Special:       ModeExternalLinkCard,
			EntrySelector: "a.entry-link[href]",
		},
		"zenn.dev": {
			Special: ModeStrictSlugOnly,
			SlugPatterns: res(
				`^/[^/]+/articles/[^/]+/?$`,
				`^/articles/[^/]+/?$`,
			),
			Exclude:         res(`^/users?/`, `^/topics/`, `^/books/`, `^/scraps/`, `^/tags?/`),
			AllowNoListTime: true,
		},
		"openai.com": {
			Include:         res(`/news/`),
			Exclude:         res(`/team/`, `/researchers/`, `/about/`),
			AllowNoListTime: true,
		},
		"news.microsoft.com": {
			Include:         res(`/source/`),
			Exclude:         res(`/people/`, `/about/`),
			AllowNoListTime: true,
		},
		"huggingface.co": {
			Include:         res(`/blog/`),
			Exclude:         res(`/authors?/`),
			AllowNoListTime: true,
		},
		"ai-scholar.tech": {
			Include: res(`/ai_news/`, `/ai_trends/`, `/ai_book/`, `/ai_scholar/`, `/article/`),
			Exclude: res(`/category/`, `/tag/`, `/author/`),
		},
		"competition-content.signate.jp": {
			Include: res(`^/articles/[^/]+/?$`),
			Exclude: res(`/users?/`, `/tags?/`),
		},
		"kaggle.com": {
			Include:         res(`^/blog/[^/?#]+/?$`),
			AllowNoListTime: true,
		},
		"kdnuggets.com": {
			Special: ModeStrictSlugOnly,
			SlugPatterns: res(
				`^/\d{4}/\d{2}/[^/][^?#]*(?:\.html)?/?$`,
			),
			Exclude:         res(`^/tag/`, `^/tags?/`),
			AllowNoListTime: true,
		},
		"towardsdatascience.com": {
			AllowCrossHost: map[string]bool{
				"towardsdatascience.com": true,
				"medium.com":             true,
			},
			AllowNoListTime: true,
		},
		"medium.com": {
			Include: res(
				`^/towards-data-science/[^/]+-[0-9a-fA-F]{12}$`,
				`^/p/[0-9a-fA-F]{12}$`,
			),
			Exclude:         res(`^/tag/`, `/about/`),
			AllowNoListTime: true,
		},
		"analyticsvidhya.com": {
			Include:         res(`^/blog/\d{4}/\d{2}/[^/].*`),
			Exclude:         res(`/category/`, `/tag/`),
			AllowNoListTime: true,
		},
		"codezine.jp": {
			Include: res(`^/article/detail/\d+\.html$`),
			Exclude: res(`^/category/`, `^/tag/`),
		},
		"publickey1.jp": {
			Include: res(`^/blog/\d{4}/\d{2}/[^/].*\.html$`),
		},
	}
}
