package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/config"
)

func TestAIServiceWithoutKey(t *testing.T) {
	svc, err := NewAIService(context.Background(), &config.Config{GeminiModel: "gemini-1.5-flash"}, zerolog.Nop())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrAIDisabled)
}

func TestQuestionPrompt(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		brief   string
		file    string
		minutes int
		want    []string
		absent  []string
	}{
		{"brief only", "Graphs", "BFS and DFS", "", 0,
			[]string{"Assignment title: Graphs", "Lecturer's brief:\nBFS and DFS", "Difficulty: advanced"},
			[]string{"Reference material", "Expected completion time"}},
		{"file with time", "", "", "Chapter 4 text", 45,
			[]string{"Reference material:\nChapter 4 text", "Expected completion time: 45 minutes"},
			[]string{"Assignment title", "Lecturer's brief"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := questionPrompt(tt.title, tt.brief, tt.file, "advanced", tt.minutes)
			for _, s := range tt.want {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, got, s)
			}
		})
	}
}
