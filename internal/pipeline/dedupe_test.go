package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupeCandidatesKeepsLatest(t *testing.T) {
	t1 := referenceNow.Add(-5 * time.Hour)
	t2 := referenceNow.Add(-1 * time.Hour)

	in := []Candidate{
		{Title: "OpenAI Releases New Model", Link: "https://a.example/1", ListTimeGuess: t1},
		{Title: "OPENAI RELEASES NEW MODEL!", Link: "https://b.example/2", ListTimeGuess: t2},
		{Title: "Unrelated story", Link: "https://a.example/3", ListTimeGuess: t1},
	}
	out := DedupeCandidates(in)

	assert.Len(t, out, 2)
	// タイトルが同値なグループは新しいタイムスタンプ側が代表になる
	assert.Equal(t, "https://b.example/2", out[0].Link)
	assert.Equal(t, "Unrelated story", out[1].Title)
}

func TestDedupeCandidatesTimestampBeatsUnknown(t *testing.T) {
	t1 := referenceNow.Add(-2 * time.Hour)

	in := []Candidate{
		{Title: "Same Story", Link: "https://a.example/1"}, // 時刻不明
		{Title: "Same Story", Link: "https://b.example/2", ListTimeGuess: t1},
	}
	out := DedupeCandidates(in)

	assert.Len(t, out, 1)
	assert.Equal(t, "https://b.example/2", out[0].Link)
}

func TestDedupeCandidatesFirstWinsOnTie(t *testing.T) {
	t1 := referenceNow.Add(-2 * time.Hour)

	in := []Candidate{
		{Title: "Same Story", Link: "https://a.example/1", ListTimeGuess: t1},
		{Title: "Same Story", Link: "https://b.example/2", ListTimeGuess: t1},
	}
	out := DedupeCandidates(in)

	assert.Len(t, out, 1)
	assert.Equal(t, "https://a.example/1", out[0].Link)

	// 両方不明でも先勝ち
	in = []Candidate{
		{Title: "Same Story", Link: "https://a.example/1"},
		{Title: "Same Story", Link: "https://b.example/2"},
	}
	out = DedupeCandidates(in)
	assert.Len(t, out, 1)
	assert.Equal(t, "https://a.example/1", out[0].Link)
}

func TestDedupeCandidatesPreservesOrder(t *testing.T) {
	in := []Candidate{
		{Title: "First", Link: "https://a.example/1", ListTimeGuess: referenceNow},
		{Title: "Second", Link: "https://a.example/2", ListTimeGuess: referenceNow},
		{Title: "Third", Link: "https://a.example/3", ListTimeGuess: referenceNow},
	}
	out := DedupeCandidates(in)
	assert.Equal(t, []string{"First", "Second", "Third"},
		[]string{out[0].Title, out[1].Title, out[2].Title})
}

func TestDedupeRecords(t *testing.T) {
	older := referenceNow.Add(-10 * time.Hour)
	newer := referenceNow.Add(-1 * time.Hour)

	in := []ArticleRecord{
		{Title: "「速報」GPT-5発表", URL: "https://a.example/1", PublishedAt: older},
		{Title: "【速報】GPT-5発表！", URL: "https://b.example/2", PublishedAt: newer},
	}
	out := DedupeRecords(in)

	assert.Len(t, out, 1)
	assert.Equal(t, "https://b.example/2", out[0].URL)
	assert.True(t, out[0].PublishedAt.Equal(newer))
}

func TestDedupeSkipsEmptyTitles(t *testing.T) {
	in := []Candidate{
		{Title: "   ", Link: "https://a.example/1"},
		{Title: "Real", Link: "https://a.example/2", ListTimeGuess: referenceNow},
	}
	out := DedupeCandidates(in)
	assert.Len(t, out, 1)
	assert.Equal(t, "Real", out[0].Title)
}
