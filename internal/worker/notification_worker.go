package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/model"
)

// Deliverer stores a notification and pushes it to connected clients.
type Deliverer interface {
	Deliver(ctx context.Context, n *model.Notification) error
}

// NotificationWorker consumes notifications_queue. Delivery is idempotent
// on the notification ID, so a job retried after a partial failure is safe.
type NotificationWorker struct {
	deliverer Deliverer
	consumer  *queueConsumer
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(deliverer Deliverer, rdb *redis.Client, log zerolog.Logger) *NotificationWorker {
	w := &NotificationWorker{deliverer: deliverer}
	w.consumer = newQueueConsumer(rdb, config.WorkerKey.NotificationQueue,
		log.With().Str("component", "notification_worker").Logger(), w.handle)
	return w
}

// Start begins the worker loop. Call in a goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.consumer.run(ctx)
}

func (w *NotificationWorker) handle(ctx context.Context, raw string) error {
	var n model.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil || n.UserID == 0 {
		return fmt.Errorf("%w: %q", errMalformed, raw)
	}
	return w.deliverer.Deliver(ctx, &n)
}
