package model

import "time"

// PlagiarismCheckRequest is the payload for an ad-hoc plagiarism check.
type PlagiarismCheckRequest struct {
	Text         string `json:"text" binding:"required,max=200000"`
	Title        string `json:"title" binding:"omitempty,max=255"`
	AssignmentID string `json:"assignment_id" binding:"omitempty,uuid"`
}

// PlagiarismSource is one matching source.
type PlagiarismSource struct {
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Similarity float64 `json:"similarity"`
}

// PlagiarismAnalysis breaks down the word counts of a check.
type PlagiarismAnalysis struct {
	TotalWords       int `json:"total_words"`
	PlagiarizedWords int `json:"plagiarized_words"`
	UniqueWords      int `json:"unique_words"`
}

// PlagiarismResult is the outcome of a check.
type PlagiarismResult struct {
	SimilarityPercentage float64            `json:"similarity_percentage"`
	SourcesCount         int                `json:"sources_count"`
	Sources              []PlagiarismSource `json:"sources"`
	IsPlagiarized        bool               `json:"is_plagiarized"`
	Analysis             PlagiarismAnalysis `json:"analysis"`
	ReportURL            string             `json:"report_url,omitempty"`
	Engine               string             `json:"engine"`
	CheckedAt            time.Time          `json:"checked_at"`
}

// GenerateTextRequest asks the AI model for free-form text.
type GenerateTextRequest struct {
	Prompt string `json:"prompt" binding:"required,max=20000"`
}

// ProcessedFile is the text extracted from an uploaded file.
type ProcessedFile struct {
	Content  string `json:"content"`
	FileType string `json:"fileType"`
	FileName string `json:"fileName"`
}
