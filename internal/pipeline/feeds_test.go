package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "rfc1123z",
			in:   "Wed, 17 Dec 2025 10:30:00 +0900",
			want: time.Date(2025, 12, 17, 10, 30, 0, 0, jst),
		},
		{
			name: "rfc1123 gmt",
			in:   "Wed, 17 Dec 2025 01:30:00 GMT",
			want: time.Date(2025, 12, 17, 10, 30, 0, 0, jst),
		},
		{
			name: "rfc3339",
			in:   "2025-12-17T10:30:00+09:00",
			want: time.Date(2025, 12, 17, 10, 30, 0, 0, jst),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFeedTime(tt.in, referenceNow)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	assert.True(t, parseFeedTime("", referenceNow).IsZero())
	assert.True(t, parseFeedTime("not a date", referenceNow).IsZero())
}

func TestLenientFeedItems(t *testing.T) {
	// 宣言違反のある壊れ気味のRSSでもitemは拾える
	raw := []byte(`<?xml version="1.0"?>
<rss><channel>
  <item>
    <title>生成AIの新手法</title>
    <link>https://example.com/news/1?utm_source=rss</link>
    <pubDate>Wed, 17 Dec 2025 10:30:00 +0900</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/news/no-title</link>
  </item>
  <item>
    <title>リンクなし</title>
  </item>
</channel></rss>`)

	items, err := lenientFeedItems(raw, "https://example.com/feed", referenceNow)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "生成AIの新手法", items[0].Title)
	assert.Equal(t, "https://example.com/news/1", items[0].Link)
	assert.Equal(t, "https://example.com/feed", items[0].SourceList)
	assert.True(t, items[0].ListTimeGuess.Equal(time.Date(2025, 12, 17, 10, 30, 0, 0, jst)))
}

func TestLenientFeedItemsAtomHref(t *testing.T) {
	raw := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Atom entry</title>
    <link href="https://example.com/atom/1"/>
    <updated>2025-12-17T10:30:00+09:00</updated>
  </entry>
</feed>`)

	items, err := lenientFeedItems(raw, "https://example.com/feed.atom", referenceNow)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com/atom/1", items[0].Link)
	assert.False(t, items[0].ListTimeGuess.IsZero())
}
