package services

import (
	"context"
	"sync"
	"time"

	"pageTurnerAPI/internal/notification"

	"github.com/rs/zerolog"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher fans notifications out to push devices through a
// small in-memory worker pool.
type NotificationDispatcher struct {
	service      *NotificationService
	log          zerolog.Logger
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
	Preferences  *notification.NotificationPreferences
}

func NewNotificationDispatcher(service *NotificationService, logger zerolog.Logger) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		log:      logger,
		workers:  5,
		jobQueue: make(chan *DispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()

	go dispatcher.processScheduledNotifications()
	go dispatcher.cleanupExpiredNotifications()

	return dispatcher
}

// SetPushProvider wires the real FCM provider from main.go. Without it
// notifications stay in-app only.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	prefs := job.Preferences

	if prefs.PushEnabled && len(prefs.DeviceTokens) > 0 && d.pushProvider != nil {
		err := d.pushProvider.SendPush(ctx, prefs.DeviceTokens, notif.Title, notif.Body, notif.Data)
		if err != nil {
			d.log.Warn().Err(err).Str("user_id", notif.UserID.String()).Msg("push failed")
			d.markAsFailed(ctx, notif.ID.String(), err)
			return
		}
	}

	d.markAsSent(ctx, notif.ID.String())
}

// DispatchNotification queues a notification for delivery.
func (d *NotificationDispatcher) DispatchNotification(ctx context.Context, notif *notification.Notification, prefs *notification.NotificationPreferences) {
	job := &DispatchJob{
		Notification: notif,
		Preferences:  prefs,
	}

	select {
	case d.jobQueue <- job:
	case <-time.After(5 * time.Second):
		d.log.Error().Str("notification_id", notif.ID.String()).Msg("failed to queue notification: queue full")
	}
}

func (d *NotificationDispatcher) processScheduledNotifications() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.processDueNotifications()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processDueNotifications() {
	ctx := context.Background()

	query := `
		SELECT id, user_id, type, priority, status, title, body, data,
			   actor_id, scheduled_for, action_url, created_at, expires_at
		FROM notifications
		WHERE status = 'pending'
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= NOW()
		  AND (expires_at IS NULL OR expires_at > NOW())
		LIMIT 100
	`

	rows, err := d.service.db.Query(ctx, query)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to fetch scheduled notifications")
		return
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		notif := &notification.Notification{}
		var dataStr string

		err := rows.Scan(
			&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
			&notif.Title, &notif.Body, &dataStr, &notif.ActorID, &notif.ScheduledFor,
			&notif.ActionURL, &notif.CreatedAt, &notif.ExpiresAt,
		)
		if err != nil {
			d.log.Error().Err(err).Msg("failed to scan scheduled notification")
			continue
		}

		prefs, err := d.service.GetUserPreferencesByUUID(ctx, notif.UserID)
		if err != nil {
			d.log.Error().Err(err).Str("user_id", notif.UserID.String()).Msg("failed to get preferences")
			continue
		}

		d.DispatchNotification(ctx, notif, prefs)
		count++
	}

	if count > 0 {
		d.log.Info().Int("count", count).Msg("processed scheduled notifications")
	}
}

func (d *NotificationDispatcher) cleanupExpiredNotifications() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.performCleanup()
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) performCleanup() {
	ctx := context.Background()

	query := `
		DELETE FROM notifications
		WHERE expires_at < NOW()
		  AND status IN ('sent', 'read')
	`

	result, err := d.service.db.Exec(ctx, query)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to cleanup expired notifications")
		return
	}
	if n := result.RowsAffected(); n > 0 {
		d.log.Info().Int64("count", n).Msg("cleaned up expired notifications")
	}

	query = `
		DELETE FROM notifications
		WHERE read_at < NOW() - INTERVAL '90 days'
		  AND status = 'read'
	`

	result, err = d.service.db.Exec(ctx, query)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to cleanup old read notifications")
		return
	}
	if n := result.RowsAffected(); n > 0 {
		d.log.Info().Int64("count", n).Msg("cleaned up old read notifications")
	}
}

func (d *NotificationDispatcher) markAsSent(ctx context.Context, notificationID string) {
	query := `
		UPDATE notifications
		SET status = 'sent', sent_at = NOW()
		WHERE id = $1
	`

	if _, err := d.service.db.Exec(ctx, query, notificationID); err != nil {
		d.log.Error().Err(err).Str("notification_id", notificationID).Msg("failed to mark notification as sent")
	}
}

func (d *NotificationDispatcher) markAsFailed(ctx context.Context, notificationID string, sendErr error) {
	query := `
		UPDATE notifications
		SET status = 'failed', failure_reason = $2, retry_count = retry_count + 1
		WHERE id = $1
	`

	if _, err := d.service.db.Exec(ctx, query, notificationID, sendErr.Error()); err != nil {
		d.log.Error().Err(err).Str("notification_id", notificationID).Msg("failed to mark notification as failed")
		return
	}

	// Retry high/urgent notifications up to 3 times.
	var retryCount int
	var priority notification.NotificationPriority
	d.service.db.QueryRow(ctx, "SELECT retry_count, priority FROM notifications WHERE id = $1", notificationID).Scan(&retryCount, &priority)

	if retryCount < 3 && (priority == notification.PriorityHigh || priority == notification.PriorityUrgent) {
		retryTime := time.Now().Add(5 * time.Minute)
		d.service.db.Exec(ctx, "UPDATE notifications SET scheduled_for = $2, status = 'pending' WHERE id = $1", notificationID, retryTime)
		d.log.Info().Str("notification_id", notificationID).Time("retry_at", retryTime).Msg("scheduled notification retry")
	}
}

// Stop drains the worker pool.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
	d.log.Info().Msg("notification dispatcher stopped")
}

// MockPushProvider logs instead of sending. Used in tests and local runs
// without FCM credentials.
type MockPushProvider struct {
	Log zerolog.Logger
}

func (m *MockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	m.Log.Info().Int("devices", len(tokens)).Str("title", title).Msg("mock push")
	return nil
}
