package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// errMalformed marks a job that can never succeed; it is dropped, not retried.
var errMalformed = errors.New("malformed job")

const (
	pollTimeout = time.Second
	retryDelay  = 5 * time.Second
)

// queueConsumer pops jobs from a Redis list and hands each to handle.
// A failed job is pushed back to the tail and the consumer backs off.
type queueConsumer struct {
	rdb    *redis.Client
	queue  string
	log    zerolog.Logger
	handle func(ctx context.Context, raw string) error
	// backoff is swapped out in tests.
	backoff func()
}

func newQueueConsumer(rdb *redis.Client, queue string, log zerolog.Logger, handle func(context.Context, string) error) *queueConsumer {
	return &queueConsumer{
		rdb:     rdb,
		queue:   queue,
		log:     log,
		handle:  handle,
		backoff: func() { time.Sleep(retryDelay) },
	}
}

// run loops until ctx is cancelled, then drains what is left.
func (q *queueConsumer) run(ctx context.Context) {
	q.log.Info().Str("queue", q.queue).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			q.log.Info().Msg("Worker stopping...")
			q.drain(context.Background())
			q.log.Info().Msg("Worker stopped")
			return
		default:
			q.processNext(ctx)
		}
	}
}

func (q *queueConsumer) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or the poll timeout passes.
	result, err := q.rdb.BLPop(ctx, pollTimeout, q.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			q.log.Error().Err(err).Msg("BLPop error")
			q.backoff()
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := q.handle(ctx, result[1]); err != nil {
		if errors.Is(err, errMalformed) {
			q.log.Error().Err(err).Str("payload", result[1]).Msg("Dropping job")
			return
		}
		q.log.Error().Err(err).Msg("Job failed, retrying in 5s")
		if err := q.rdb.RPush(context.Background(), q.queue, result[1]).Err(); err != nil {
			q.log.Error().Err(err).Msg("Requeue failed, job lost")
		}
		q.backoff()
	}
}

// drain handles everything still queued before shutdown. It stops at the
// first failure and leaves that job queued for the next start.
func (q *queueConsumer) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := q.rdb.LPop(ctx, q.queue).Result()
		if err != nil {
			break
		}

		if err := q.handle(ctx, raw); err != nil {
			if errors.Is(err, errMalformed) {
				q.log.Error().Err(err).Msg("Drain dropped malformed job")
				continue
			}
			q.log.Error().Err(err).Msg("Drain error")
			q.rdb.LPush(ctx, q.queue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		q.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
