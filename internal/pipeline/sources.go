// =============================================================================
// sources.go - 収集対象の一覧ページ / フィード
// =============================================================================
package pipeline

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultListPages は既定のHTML一覧ページ。
var DefaultListPages = []string{
	"https://business.nikkei.com/latest/?i_cid=nbpnb_latest",
	"https://www.businessinsider.jp/category/business/",
	"https://www.businessinsider.jp/category/tech-news/",
	"https://www.businessinsider.jp/category/science/",
	"https://www.businessinsider.jp/tag/start-up/",
	"https://xtech.nikkei.com/top/it/",
	"https://www.itmedia.co.jp/aiplus/spv/",
	"https://www.techno-edge.net/special/557/recent/%E7%94%9F%E6%88%90AI%E3%82%A6%E3%82%A3%E3%83%BC%E3%82%AF%E3%83%AA%E3%83%BC",
	"https://b.hatena.ne.jp/hotentry/it",
	"https://b.hatena.ne.jp/entrylist/it/AI%E3%83%BB%E6%A9%9F%E6%A2%B0%E5%AD%A6%E7%BF%92",
	"https://zenn.dev/topics/%E6%A9%9F%E6%A2%B0%E5%AD%A6%E7%BF%92",
	"https://zenn.dev/topics/ai",
	"https://zenn.dev/topics/deeplearning",
	"https://zenn.dev/topics/nlp",
	"https://zenn.dev/topics/python",
	"https://openai.com/ja-JP/news/",
	"https://news.microsoft.com/source/topics/ai/",
	"https://huggingface.co/blog",
	"https://ai-scholar.tech/",
	"https://competition-content.signate.jp/articles",
	"https://www.kaggle.com/blog?sort=hotness",
	"https://www.kdnuggets.com/news/index.html",
	"https://www.kdnuggets.com/tag/artificial-intelligence",
	"https://www.kdnuggets.com/tag/machine-learning",
	"https://www.kdnuggets.com/tag/data-science",
	"https://www.kdnuggets.com/tag/natural-language-processing",
	"https://www.kdnuggets.com/tag/language-models",
	"https://www.kdnuggets.com/tag/mlops",
	"https://www.kdnuggets.com/tag/python",
	"https://towardsdatascience.com/latest/",
	"https://towardsdatascience.com/tag/editors-pick/",
	"https://towardsdatascience.com/tag/deep-dives/",
	"https://www.analyticsvidhya.com/blog-archive/",
	"https://codezine.jp/data/",
	"https://codezine.jp/case/",
	"https://www.publickey1.jp/",
}

// DefaultFeedPages は既定のRSS/Atomフィード。
// HTML構造の変化や403に弱いサイトは公式フィードを優先する。
var DefaultFeedPages = []string{
	"https://openai.com/news/rss.xml",
	"https://blogs.microsoft.com/ai/feed/",
	"https://blogs.microsoft.com/feed/",
	"https://blog.google/technology/ai/rss/",
	"https://www.anthropic.com/news/rss.xml",
	"https://zenn.dev/topics/ai/feed",
	"https://zenn.dev/topics/nlp/feed",
	"https://zenn.dev/topics/deeplearning/feed",
	"https://zenn.dev/topics/python/feed",
	"https://zenn.dev/topics/%E6%A9%9F%E6%A2%B0%E5%AD%A6%E7%BF%92/feed",
	"https://qiita.com/tags/AI/feed.atom",
	"https://qiita.com/tags/LLM/feed.atom",
	"https://qiita.com/tags/DeepLearning/feed.atom",
	"https://qiita.com/tags/Python/feed.atom",
	"https://qiita.com/tags/%E8%87%AA%E7%84%B6%E8%A8%80%E8%AA%9E%E5%87%A6%E7%90%86/feed.atom",
	"https://qiita.com/tags/%E6%A9%9F%E6%A2%B0%E5%AD%A6%E7%BF%92/feed.atom",
}

// SourceSet は1ラン分の収集対象とルールテーブル。
type SourceSet struct {
	ListPages []string
	FeedPages []string
	Rules     RuleTable
}

// DefaultSources は組み込みのソース定義を返す。
func DefaultSources() *SourceSet {
	return &SourceSet{
		ListPages: DefaultListPages,
		FeedPages: DefaultFeedPages,
		Rules:     DefaultRules(),
	}
}

// yamlSources はYAMLによるソース/ルールの追加定義。
type yamlSources struct {
	ListPages []string            `yaml:"listPages"`
	FeedPages []string            `yaml:"feedPages"`
	Rules     map[string]yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`
	AllowNoListTime bool     `yaml:"allowNoListTime"`
	AllowCrossHost  []string `yaml:"allowCrossHost"`
}

// LoadSources は組み込み定義に SOURCES_FILE の内容をマージして返す。
// path が空なら組み込み定義のみ。
func LoadSources(path string) (*SourceSet, error) {
	set := DefaultSources()
	if path == "" {
		return set, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var y yamlSources
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	set.ListPages = append(set.ListPages, y.ListPages...)
	set.FeedPages = append(set.FeedPages, y.FeedPages...)

	for host, yr := range y.Rules {
		host = NormalizeHost(host)
		rule := set.Rules[host]
		if rule == nil {
			rule = &SiteRule{}
			set.Rules[host] = rule
		}
		for _, p := range yr.Include {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %s: include %q: %w", host, p, err)
			}
			rule.Include = append(rule.Include, re)
		}
		for _, p := range yr.Exclude {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %s: exclude %q: %w", host, p, err)
			}
			rule.Exclude = append(rule.Exclude, re)
		}
		if yr.AllowNoListTime {
			rule.AllowNoListTime = true
		}
		if len(yr.AllowCrossHost) > 0 {
			if rule.AllowCrossHost == nil {
				rule.AllowCrossHost = map[string]bool{}
			}
			for _, h := range yr.AllowCrossHost {
				rule.AllowCrossHost[NormalizeHost(h)] = true
			}
		}
	}
	return set, nil
}
