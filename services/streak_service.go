package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pageTurnerAPI/internal/notification"
	"pageTurnerAPI/internal/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// RecalculationCounter records streak recalculations for observability.
type RecalculationCounter interface {
	CountStreakRecalculation(trigger string)
}

// StreakService recomputes a user's reading streak from their session
// history and keeps the denormalized columns on the users row in sync.
// All writes go through a transaction that locks the users row, so
// concurrent recalculations for the same user serialize on the database.
type StreakService struct {
	db            *pgxpool.Pool
	loc           *time.Location
	log           zerolog.Logger
	notifications *NotificationService
	users         *UserService
	metrics       RecalculationCounter
}

func NewStreakService(db *pgxpool.Pool, loc *time.Location, logger zerolog.Logger) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{db: db, loc: loc, log: logger}
}

// SetMetrics wires the optional recalculation counter.
func (s *StreakService) SetMetrics(metrics RecalculationCounter) {
	s.metrics = metrics
}

// SetNotificationService wires the optional notification sender. Without it
// milestone pushes are silently skipped.
func (s *StreakService) SetNotificationService(ns *NotificationService) {
	s.notifications = ns
}

// SetUserService wires the achievement awarder. Without it achievements
// are only granted when the user opens the achievements screen.
func (s *StreakService) SetUserService(us *UserService) {
	s.users = us
}

func (s *StreakService) GetStreak(ctx context.Context, clerkID string) (*streak.State, error) {
	query := `
	SELECT current_streak, longest_streak, streak_freezes, last_activity_date
	FROM users
	WHERE clerk_id = $1
	`

	state := &streak.State{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&state.CurrentStreak,
		&state.LongestStreak,
		&state.StreakFreezes,
		&state.LastActivityDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return state, nil
}

// RecalculateByClerkID resolves the internal user id and recalculates.
func (s *StreakService) RecalculateByClerkID(ctx context.Context, clerkID string, trigger string) (*streak.State, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	return s.Recalculate(ctx, userID, trigger)
}

// OnNewSession is the hook called after a reading session is logged or
// deleted. It is a full recalculation, so calling it twice in a row
// leaves the same state behind.
func (s *StreakService) OnNewSession(ctx context.Context, userID uuid.UUID) (*streak.State, error) {
	return s.Recalculate(ctx, userID, "session")
}

// Recalculate rebuilds the streak state from the full session history and
// persists it. Either every column is updated or none is.
func (s *StreakService) Recalculate(ctx context.Context, userID uuid.UUID, trigger string) (*streak.State, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin streak transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	prev := streak.State{}
	err = tx.QueryRow(ctx, `
		SELECT current_streak, longest_streak, streak_freezes, last_activity_date
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(
		&prev.CurrentStreak,
		&prev.LongestStreak,
		&prev.StreakFreezes,
		&prev.LastActivityDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT session_date, pages_read
		FROM reading_sessions
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading sessions: %w", err)
	}

	var sessions []streak.Session
	for rows.Next() {
		var sess streak.Session
		if err := rows.Scan(&sess.Date, &sess.PagesRead); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan reading session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	covered, err := s.coveredDates(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	next, newlyCovered, invalid := streak.Recompute(prev, sessions, covered, time.Now(), s.loc)
	if invalid > 0 {
		s.log.Warn().
			Str("user_id", userID.String()).
			Int("invalid_sessions", invalid).
			Msg("skipped sessions with unusable dates during streak recalculation")
	}

	// Spent tokens stay attached to the day they covered, so the next
	// recalculation bridges the same gap without spending again.
	for _, day := range newlyCovered {
		_, err = tx.Exec(ctx, `
			INSERT INTO streak_freeze_uses (user_id, covered_date)
			VALUES ($1, $2)
			ON CONFLICT (user_id, covered_date) DO NOTHING
		`, userID, day)
		if err != nil {
			return nil, fmt.Errorf("failed to record freeze use: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET current_streak = $2,
		    longest_streak = $3,
		    streak_freezes = $4,
		    last_activity_date = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, userID, next.CurrentStreak, next.LongestStreak, next.StreakFreezes, next.LastActivityDate)
	if err != nil {
		return nil, fmt.Errorf("failed to persist streak state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit streak transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CountStreakRecalculation(trigger)
	}

	s.log.Debug().
		Str("user_id", userID.String()).
		Str("trigger", trigger).
		Int("current_streak", next.CurrentStreak).
		Int("longest_streak", next.LongestStreak).
		Int("streak_freezes", next.StreakFreezes).
		Msg("streak recalculated")

	s.notifyStreakChanges(ctx, userID, prev, next)
	s.awardAchievements(ctx, userID)

	return &next, nil
}

// coveredDates loads the days previously paid for by spent freeze tokens.
func (s *StreakService) coveredDates(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT covered_date
		FROM streak_freeze_uses
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load freeze uses: %w", err)
	}
	defer rows.Close()

	var covered []string
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan freeze use: %w", err)
		}
		covered = append(covered, day.Format(streak.DateLayout))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read freeze uses: %w", err)
	}

	return covered, nil
}

func (s *StreakService) awardAchievements(ctx context.Context, userID uuid.UUID) {
	if s.users == nil {
		return
	}

	names, err := s.users.CheckAndAwardAchievements(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("achievement check failed after streak recalculation")
		return
	}

	if s.notifications == nil {
		return
	}
	for _, name := range names {
		req := &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.NotificationAchievement,
			Priority: notification.PriorityNormal,
			Title:    "Achievement unlocked",
			Body:     name,
			Data: map[string]any{
				"achievement": name,
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, req); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to send achievement notification")
		}
	}
}

// notifyStreakChanges is best effort. A failed notification never fails
// the recalculation that triggered it.
func (s *StreakService) notifyStreakChanges(ctx context.Context, userID uuid.UUID, prev, next streak.State) {
	if s.notifications == nil {
		return
	}

	if streak.CrossedMilestone(prev.CurrentStreak, next.CurrentStreak) {
		req := &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.NotificationStreakMilestone,
			Priority: notification.PriorityNormal,
			Title:    fmt.Sprintf("%d-day streak!", next.CurrentStreak),
			Body:     fmt.Sprintf("You've been reading %d days in a row. Keep it up!", next.CurrentStreak),
			Data: map[string]any{
				"current_streak": next.CurrentStreak,
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, req); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to send streak milestone notification")
		}
	}

	if next.StreakFreezes > prev.StreakFreezes {
		req := &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.NotificationFreezeEarned,
			Priority: notification.PriorityLow,
			Title:    "Streak freeze earned",
			Body:     "You earned a streak freeze. It will cover you if you miss a day.",
			Data: map[string]any{
				"streak_freezes": next.StreakFreezes,
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, req); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to send freeze earned notification")
		}
	}
}
