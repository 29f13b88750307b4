package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalSimilarity(t *testing.T) {
	corpus := []CorpusDoc{
		{Title: "Submission a", Text: "A linked list stores nodes that point to the next node."},
		{Title: "Submission b", Text: "Hash tables map keys to buckets using a hash function."},
	}

	tests := []struct {
		name        string
		text        string
		wantSim     float64
		wantSources int
		plagiarized bool
	}{
		{
			name:        "exact copy",
			text:        "A linked list stores nodes that point to the next node.",
			wantSim:     100,
			wantSources: 1,
			plagiarized: true,
		},
		{
			name:        "case and punctuation ignored",
			text:        "a LINKED list, stores nodes!",
			wantSim:     100,
			wantSources: 1,
			plagiarized: true,
		},
		{
			name:        "original work",
			text:        "Graphs are made of vertices and edges.",
			wantSim:     0,
			wantSources: 0,
		},
		{
			name:        "partial overlap",
			text:        "map keys to buckets quickly and cheaply",
			wantSim:     40,
			wantSources: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := LocalSimilarity(tt.text, corpus, 50)
			assert.Equal(t, tt.wantSim, res.SimilarityPercentage)
			assert.Equal(t, tt.wantSources, res.SourcesCount)
			assert.Len(t, res.Sources, tt.wantSources)
			assert.Equal(t, tt.plagiarized, res.IsPlagiarized)
			assert.Equal(t, EngineLocal, res.Engine)
			assert.Equal(t, res.Analysis.TotalWords, res.Analysis.PlagiarizedWords+res.Analysis.UniqueWords)
		})
	}
}

func TestLocalSimilarityOrdersSources(t *testing.T) {
	corpus := []CorpusDoc{
		{Title: "low", Text: "one two three nine ten"},
		{Title: "high", Text: "one two three four five"},
	}
	res := LocalSimilarity("one two three four five", corpus, 90)

	if assert.Len(t, res.Sources, 2) {
		assert.Equal(t, "high", res.Sources[0].Title)
		assert.Equal(t, "low", res.Sources[1].Title)
	}
	assert.Equal(t, 100.0, res.SimilarityPercentage)
	assert.True(t, res.IsPlagiarized)
}

func TestLocalSimilarityEmptyText(t *testing.T) {
	res := LocalSimilarity("  ...  ", []CorpusDoc{{Title: "x", Text: "anything at all"}}, 10)
	assert.Zero(t, res.Analysis.TotalWords)
	assert.Zero(t, res.SimilarityPercentage)
	assert.NotNil(t, res.Sources)
}
