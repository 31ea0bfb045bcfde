package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationStreakMilestone NotificationType = "streak_milestone"
	NotificationStreakReminder  NotificationType = "streak_reminder"
	NotificationFreezeEarned    NotificationType = "freeze_earned"
	NotificationFriendAdded     NotificationType = "friend_added"
	NotificationAchievement     NotificationType = "achievement"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
	StatusRead    NotificationStatus = "read"
)

type Notification struct {
	ID           uuid.UUID            `json:"id" db:"id"`
	UserID       uuid.UUID            `json:"user_id" db:"user_id"`
	Type         NotificationType     `json:"type" db:"type"`
	Priority     NotificationPriority `json:"priority" db:"priority"`
	Status       NotificationStatus   `json:"status" db:"status"`
	Title        string               `json:"title" db:"title"`
	Body         string               `json:"body" db:"body"`
	Data         map[string]any       `json:"data" db:"data"`
	ActorID      *uuid.UUID           `json:"actor_id,omitempty" db:"actor_id"`
	ScheduledFor *time.Time           `json:"scheduled_for,omitempty" db:"scheduled_for"`
	ActionURL    *string              `json:"action_url,omitempty" db:"action_url"`
	SentAt       *time.Time           `json:"sent_at,omitempty" db:"sent_at"`
	ReadAt       *time.Time           `json:"read_at,omitempty" db:"read_at"`
	ExpiresAt    *time.Time           `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type NotificationPreferences struct {
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	PushEnabled  bool          `json:"push_enabled" db:"push_enabled"`
	InAppEnabled bool          `json:"in_app_enabled" db:"in_app_enabled"`
	DeviceTokens []DeviceToken `json:"device_tokens"`
}
