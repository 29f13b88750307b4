package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"google.golang.org/api/option"
)

// AI service errors.
var (
	ErrAIDisabled = errors.New("ai generation is not configured")
	ErrAIUpstream = errors.New("ai generation failed")
)

// TextGenerator produces text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AIService wraps the Gemini client.
type AIService struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewAIService creates a new AIService. Without an API key the service is
// built but every call returns ErrAIDisabled.
func NewAIService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*AIService, error) {
	s := &AIService{
		model: cfg.GeminiModel,
		log:   log.With().Str("component", "ai_service").Logger(),
	}
	if cfg.GeminiAPIKey == "" {
		s.log.Warn().Msg("GEMINI_API_KEY not set, AI generation disabled")
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	s.client = client
	return s, nil
}

// Close releases the underlying client.
func (s *AIService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Generate returns the model's text answer for prompt.
func (s *AIService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", ErrAIDisabled
	}

	m := s.client.GenerativeModel(s.model)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		s.log.Error().Err(err).Msg("Gemini request failed")
		return "", fmt.Errorf("%w: %v", ErrAIUpstream, err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty response", ErrAIUpstream)
	}
	return out, nil
}

// questionPrompt builds the prompt for generating assignment questions from
// a free-text brief and/or extracted file content.
func questionPrompt(title, brief, fileContent, difficulty string, minutes int) string {
	var sb strings.Builder
	sb.WriteString("You are helping a university lecturer write an assignment.\n")
	if title != "" {
		fmt.Fprintf(&sb, "Assignment title: %s\n", title)
	}
	fmt.Fprintf(&sb, "Difficulty: %s\n", difficulty)
	if minutes > 0 {
		fmt.Fprintf(&sb, "Expected completion time: %d minutes\n", minutes)
	}
	if brief != "" {
		fmt.Fprintf(&sb, "Lecturer's brief:\n%s\n", brief)
	}
	if fileContent != "" {
		fmt.Fprintf(&sb, "Reference material:\n%s\n", fileContent)
	}
	sb.WriteString("Write a numbered list of questions suited to the difficulty and time. Return only the questions.")
	return sb.String()
}
