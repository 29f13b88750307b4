package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// runTimeout bounds one publish pass.
const runTimeout = 30 * time.Second

// DuePublisher publishes coding exams whose publish time has passed.
type DuePublisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// ExamScheduler runs PublishDue on a cron schedule. Overlapping runs are
// skipped rather than queued.
type ExamScheduler struct {
	exams DuePublisher
	cron  *cron.Cron
	log   zerolog.Logger
}

// NewExamScheduler registers the publish job under spec, e.g. "@every 1m".
func NewExamScheduler(exams DuePublisher, spec string, log zerolog.Logger) (*ExamScheduler, error) {
	s := &ExamScheduler{
		exams: exams,
		log:   log.With().Str("component", "exam_scheduler").Logger(),
	}

	cl := cronLogger{log: s.log}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled, then waits for an
// in-flight run to finish.
func (s *ExamScheduler) Start(ctx context.Context) {
	s.log.Info().Msg("Scheduler started")
	s.runOnce()
	s.cron.Start()

	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopping...")
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

func (s *ExamScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	n, err := s.exams.PublishDue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Publishing scheduled exams failed")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("Published scheduled exams")
	}
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
