package jobs

import (
	"context"
	"fmt"
	"time"

	"pageTurnerAPI/internal/notification"
	"pageTurnerAPI/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// StreakReconciler runs the scheduled streak maintenance:
// a nightly recalculation for recently active users (so streaks break and
// freezes burn even when nobody opens the app), and an evening reminder
// for users whose streak is about to end.
type StreakReconciler struct {
	db            *pgxpool.Pool
	streaks       *services.StreakService
	notifications *services.NotificationService
	cron          *cron.Cron
	reminderHour  int
	log           zerolog.Logger
}

func NewStreakReconciler(db *pgxpool.Pool, streaks *services.StreakService, notifications *services.NotificationService, reminderHour int, logger zerolog.Logger) *StreakReconciler {
	return &StreakReconciler{
		db:            db,
		streaks:       streaks,
		notifications: notifications,
		cron:          cron.New(),
		reminderHour:  reminderHour,
		log:           logger,
	}
}

func (r *StreakReconciler) Start() error {
	// Shortly after midnight, once the reference day has rolled over.
	if _, err := r.cron.AddFunc("10 0 * * *", r.reconcileStreaks); err != nil {
		return fmt.Errorf("failed to schedule streak reconciliation: %w", err)
	}

	reminderExpr := fmt.Sprintf("0 %d * * *", r.reminderHour)
	if _, err := r.cron.AddFunc(reminderExpr, r.sendStreakReminders); err != nil {
		return fmt.Errorf("failed to schedule streak reminders: %w", err)
	}

	r.cron.Start()
	r.log.Info().Int("reminder_hour", r.reminderHour).Msg("streak reconciler started")
	return nil
}

func (r *StreakReconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info().Msg("streak reconciler stopped")
}

// reconcileStreaks recalculates every user who has a live streak or logged
// a session in the last two months. Dormant accounts stay untouched; their
// state is rebuilt from history whenever they come back.
func (r *StreakReconciler) reconcileStreaks() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id FROM users
		WHERE current_streak > 0
		   OR last_activity_date >= CURRENT_DATE - INTERVAL '60 days'
	`)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list users for streak reconciliation")
		return
	}

	var userIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			r.log.Error().Err(err).Msg("failed to scan user id")
			return
		}
		userIDs = append(userIDs, id)
	}
	rows.Close()

	recalculated := 0
	for _, id := range userIDs {
		if _, err := r.streaks.Recalculate(ctx, id, "reconciler"); err != nil {
			r.log.Warn().Err(err).Str("user_id", id.String()).Msg("nightly streak recalculation failed")
			continue
		}
		recalculated++
	}

	r.log.Info().Int("users", len(userIDs)).Int("recalculated", recalculated).Msg("nightly streak reconciliation done")
}

// sendStreakReminders pings users with a live streak who haven't read today.
func (r *StreakReconciler) sendStreakReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.current_streak
		FROM users u
		WHERE u.current_streak > 0
			AND NOT EXISTS (
				SELECT 1 FROM reading_sessions rs
				WHERE rs.user_id = u.id
					AND rs.session_date = CURRENT_DATE
					AND rs.pages_read > 0
			)
	`)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list users for streak reminders")
		return
	}

	type atRisk struct {
		id     uuid.UUID
		streak int
	}
	var users []atRisk
	for rows.Next() {
		var u atRisk
		if err := rows.Scan(&u.id, &u.streak); err != nil {
			rows.Close()
			r.log.Error().Err(err).Msg("failed to scan at-risk user")
			return
		}
		users = append(users, u)
	}
	rows.Close()

	sent := 0
	for _, u := range users {
		req := &notification.CreateNotificationRequest{
			UserID:   u.id,
			Type:     notification.NotificationStreakReminder,
			Priority: notification.PriorityHigh,
			Title:    "Your streak is at risk",
			Body:     fmt.Sprintf("Read a few pages today to keep your %d-day streak alive.", u.streak),
			Data: map[string]any{
				"current_streak": u.streak,
			},
		}
		if _, err := r.notifications.CreateNotification(ctx, req); err != nil {
			r.log.Warn().Err(err).Str("user_id", u.id.String()).Msg("failed to send streak reminder")
			continue
		}
		sent++
	}

	r.log.Info().Int("at_risk", len(users)).Int("sent", sent).Msg("streak reminders done")
}
