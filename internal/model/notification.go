package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies notifications for client rendering.
type NotificationType string

const (
	NotificationAssignmentPublished NotificationType = "assignment_published"
	NotificationAssignmentSubmitted NotificationType = "assignment_submitted"
	NotificationLateSubmission      NotificationType = "assignment_late_submission"
	NotificationAssignmentGraded    NotificationType = "assignment_graded"
	NotificationExamPublished       NotificationType = "exam_published"
	NotificationGroupTaskAssigned   NotificationType = "group_task_assigned"
	NotificationPortalStatusChanged NotificationType = "portal_status_changed"
)

// Notification is one entry in a user's notification feed.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	UserID    int               `json:"user_id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
