package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/service"
)

// SubmissionChecker scores a stored submission.
type SubmissionChecker interface {
	CheckSubmission(ctx context.Context, id uuid.UUID) error
}

// PlagiarismWorker consumes plagiarism_checks_queue and records similarity
// scores on submissions.
type PlagiarismWorker struct {
	checker  SubmissionChecker
	consumer *queueConsumer
}

// NewPlagiarismWorker creates a new PlagiarismWorker.
func NewPlagiarismWorker(checker SubmissionChecker, rdb *redis.Client, log zerolog.Logger) *PlagiarismWorker {
	w := &PlagiarismWorker{checker: checker}
	w.consumer = newQueueConsumer(rdb, config.WorkerKey.PlagiarismQueue,
		log.With().Str("component", "plagiarism_worker").Logger(), w.handle)
	return w
}

// Start begins the worker loop. Call in a goroutine.
func (w *PlagiarismWorker) Start(ctx context.Context) {
	w.consumer.run(ctx)
}

func (w *PlagiarismWorker) handle(ctx context.Context, raw string) error {
	var job service.PlagiarismJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil || job.SubmissionID == uuid.Nil {
		return fmt.Errorf("%w: %q", errMalformed, raw)
	}
	return w.checker.CheckSubmission(ctx, job.SubmissionID)
}
