package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/repository"
	"github.com/techsynergy/campus-backend/internal/response"
)

// ErrNotificationNotFound is returned when marking an unknown notification.
var ErrNotificationNotFound = errors.New("notification not found")

// Notifier queues notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(ctx context.Context, notifications ...model.Notification) error
}

// NotificationService queues, delivers and lists notifications.
type NotificationService struct {
	repo *repository.NotificationRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "notification_service").Logger(),
	}
}

// Enqueue pushes notifications onto the delivery queue in one round trip.
func (s *NotificationService) Enqueue(ctx context.Context, notifications ...model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for i := range notifications {
		n := notifications[i]
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.NotificationQueue, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue notifications: %w", err)
	}
	return nil
}

// Deliver stores a notification and publishes it to the user's live channel.
// A failed publish is logged only; the row is already the source of truth.
func (s *NotificationService) Deliver(ctx context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.NotificationChannel(n.UserID), payload).Err(); err != nil {
		s.log.Warn().Err(err).Int("user_id", n.UserID).Msg("Failed to publish notification")
	}
	return nil
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int, unreadOnly bool, page, perPage int) ([]model.Notification, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage)

	items, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return items, buildPagination(page, perPage, total), nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID int, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Subscribe opens the user's live notification channel.
func (s *NotificationService) Subscribe(ctx context.Context, userID int) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.NotificationChannel(userID))
}
