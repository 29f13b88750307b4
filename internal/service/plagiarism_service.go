package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
)

// Engines reported on a result.
const (
	EngineRemote = "rapidapi"
	EngineLocal  = "local"
)

// Words per shingle in the local comparison.
const shingleSize = 3

// PlagiarismJob is the queue payload for an asynchronous submission check.
type PlagiarismJob struct {
	SubmissionID uuid.UUID `json:"submission_id"`
}

// CorpusDoc is one text the local engine compares against.
type CorpusDoc struct {
	Title string
	Text  string
}

// PlagiarismService checks text against the remote checker and falls back
// to comparing against other submissions of the same assignment.
type PlagiarismService struct {
	cfg         *config.Config
	client      *http.Client
	submissions *repository.SubmissionRepository
	log         zerolog.Logger
}

// NewPlagiarismService creates a new PlagiarismService.
func NewPlagiarismService(cfg *config.Config, submissions *repository.SubmissionRepository, log zerolog.Logger) *PlagiarismService {
	return &PlagiarismService{
		cfg:         cfg,
		client:      &http.Client{Timeout: 30 * time.Second},
		submissions: submissions,
		log:         log.With().Str("component", "plagiarism_service").Logger(),
	}
}

// Check runs an ad-hoc check. When assignmentID is set, the local engine
// compares against that assignment's submissions.
func (s *PlagiarismService) Check(ctx context.Context, text string, assignmentID uuid.UUID) (*model.PlagiarismResult, error) {
	return s.check(ctx, text, assignmentID, uuid.Nil)
}

// CheckSubmission scores a stored submission and records the score.
func (s *PlagiarismService) CheckSubmission(ctx context.Context, id uuid.UUID) error {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted before the worker got to it.
			return nil
		}
		return fmt.Errorf("get submission: %w", err)
	}

	res, err := s.check(ctx, sub.Content, sub.AssignmentID, sub.ID)
	if err != nil {
		return err
	}
	if err := s.submissions.SetPlagiarismScore(ctx, id, res.SimilarityPercentage); err != nil {
		return fmt.Errorf("store score: %w", err)
	}

	s.log.Info().
		Str("submission_id", id.String()).
		Float64("similarity", res.SimilarityPercentage).
		Str("engine", res.Engine).
		Msg("Plagiarism check complete")
	return nil
}

func (s *PlagiarismService) check(ctx context.Context, text string, assignmentID, exclude uuid.UUID) (*model.PlagiarismResult, error) {
	if s.cfg.PlagiarismAPIKey != "" {
		res, err := s.remote(ctx, text)
		if err == nil {
			return res, nil
		}
		s.log.Warn().Err(err).Msg("Remote plagiarism check failed, using local engine")
	}

	var corpus []CorpusDoc
	if assignmentID != uuid.Nil {
		contents, err := s.submissions.ListContents(ctx, assignmentID, exclude)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		for id, content := range contents {
			corpus = append(corpus, CorpusDoc{Title: "Submission " + id.String()[:8], Text: content})
		}
		// Map order is random; keep results reproducible.
		sort.Slice(corpus, func(i, j int) bool { return corpus[i].Title < corpus[j].Title })
	}

	res := LocalSimilarity(text, corpus, s.cfg.PlagiarismThreshold)
	return &res, nil
}

type remoteSource struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Similarity float64 `json:"similarity"`
}

type remoteResponse struct {
	PercentPlagiarism float64        `json:"percentPlagiarism"`
	Sources           []remoteSource `json:"sources"`
	TotalWords        int            `json:"totalWords"`
	PlagiarizedWords  int            `json:"plagiarizedWords"`
	UniqueWords       int            `json:"uniqueWords"`
	ReportURL         string         `json:"reportUrl"`
}

func (s *PlagiarismService) remote(ctx context.Context, text string) (*model.PlagiarismResult, error) {
	body, err := json.Marshal(map[string]any{
		"text":             text,
		"language":         "en",
		"includeCitations": false,
		"scrapeSources":    false,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PlagiarismAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", s.cfg.PlagiarismAPIKey)
	req.Header.Set("X-RapidAPI-Host", s.cfg.PlagiarismAPIHost)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("plagiarism api status %d", resp.StatusCode)
	}

	var data remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode plagiarism response: %w", err)
	}

	sources := make([]model.PlagiarismSource, 0, len(data.Sources))
	for _, src := range data.Sources {
		sources = append(sources, model.PlagiarismSource{Title: src.Title, URL: src.URL, Similarity: src.Similarity})
	}

	return &model.PlagiarismResult{
		SimilarityPercentage: data.PercentPlagiarism,
		SourcesCount:         len(sources),
		Sources:              sources,
		IsPlagiarized:        data.PercentPlagiarism > s.cfg.PlagiarismThreshold,
		Analysis: model.PlagiarismAnalysis{
			TotalWords:       data.TotalWords,
			PlagiarizedWords: data.PlagiarizedWords,
			UniqueWords:      data.UniqueWords,
		},
		ReportURL: data.ReportURL,
		Engine:    EngineRemote,
		CheckedAt: time.Now().UTC(),
	}, nil
}

// LocalSimilarity scores text by word-shingle overlap with each corpus
// document. The overall similarity is the best single-document overlap;
// plagiarized words are those covered by a shingle found in any document.
func LocalSimilarity(text string, corpus []CorpusDoc, threshold float64) model.PlagiarismResult {
	res := model.PlagiarismResult{
		Sources:   []model.PlagiarismSource{},
		Engine:    EngineLocal,
		CheckedAt: time.Now().UTC(),
	}

	words := tokenize(text)
	res.Analysis.TotalWords = len(words)
	if len(words) == 0 {
		return res
	}

	k := min(shingleSize, len(words))
	shingles := shingle(words, k)
	covered := make([]bool, len(words))

	for _, doc := range corpus {
		docWords := tokenize(doc.Text)
		if len(docWords) < k {
			continue
		}
		docSet := make(map[string]struct{})
		for _, sh := range shingle(docWords, k) {
			docSet[sh] = struct{}{}
		}

		matches := 0
		for i, sh := range shingles {
			if _, ok := docSet[sh]; ok {
				matches++
				for j := i; j < i+k; j++ {
					covered[j] = true
				}
			}
		}
		if matches == 0 {
			continue
		}

		sim := round2(float64(matches) / float64(len(shingles)) * 100)
		res.Sources = append(res.Sources, model.PlagiarismSource{Title: doc.Title, Similarity: sim})
		res.SimilarityPercentage = math.Max(res.SimilarityPercentage, sim)
	}

	sort.SliceStable(res.Sources, func(i, j int) bool {
		return res.Sources[i].Similarity > res.Sources[j].Similarity
	})

	for _, c := range covered {
		if c {
			res.Analysis.PlagiarizedWords++
		}
	}
	res.Analysis.UniqueWords = res.Analysis.TotalWords - res.Analysis.PlagiarizedWords
	res.SourcesCount = len(res.Sources)
	res.IsPlagiarized = res.SimilarityPercentage > threshold
	return res
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func shingle(words []string, k int) []string {
	out := make([]string, 0, len(words)-k+1)
	for i := 0; i+k <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+k], " "))
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
