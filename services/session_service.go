package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pageTurnerAPI/internal/calendar"
	"pageTurnerAPI/internal/session"
	"pageTurnerAPI/internal/stats"
	"pageTurnerAPI/internal/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type SessionService struct {
	db      *pgxpool.Pool
	streaks *StreakService
	loc     *time.Location
	log     zerolog.Logger
}

func NewSessionService(db *pgxpool.Pool, streaks *StreakService, loc *time.Location, logger zerolog.Logger) *SessionService {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionService{db: db, streaks: streaks, loc: loc, log: logger}
}

func (s *SessionService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// LogSession records a reading session. One row per user per calendar day:
// logging again on the same day replaces the earlier entry.
func (s *SessionService) LogSession(ctx context.Context, clerkID string, req *session.LogSessionRequest) (*session.ReadingSession, error) {
	if req.PagesRead <= 0 {
		return nil, fmt.Errorf("pages_read must be positive")
	}

	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	sessionDate := time.Now().In(s.loc)
	if req.Date != "" {
		sessionDate, err = time.ParseInLocation(streak.DateLayout, req.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", req.Date)
		}
	}
	sessionDate = time.Date(sessionDate.Year(), sessionDate.Month(), sessionDate.Day(), 0, 0, 0, 0, s.loc)

	var bookID *uuid.UUID
	if req.BookID != "" {
		parsed, err := uuid.Parse(req.BookID)
		if err != nil {
			return nil, fmt.Errorf("invalid book_id: %w", err)
		}
		bookID = &parsed
	}

	query := `
	INSERT INTO reading_sessions (id, user_id, book_id, session_date, pages_read, note, logged_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (user_id, session_date) DO UPDATE
	SET book_id = EXCLUDED.book_id,
	    pages_read = EXCLUDED.pages_read,
	    note = EXCLUDED.note,
	    logged_at = NOW()
	RETURNING id, user_id, book_id, session_date, pages_read, note, logged_at
	`

	sess := &session.ReadingSession{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, bookID, sessionDate, req.PagesRead, req.Note).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.BookID,
		&sess.SessionDate,
		&sess.PagesRead,
		&sess.Note,
		&sess.LoggedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to log session: %w", err)
	}

	s.syncTotalPages(ctx, userID)

	if _, err := s.streaks.OnNewSession(ctx, userID); err != nil {
		// The session row is already committed; a manual recalculate will
		// bring the streak back in sync.
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("streak resync failed after logging session")
	}

	return sess, nil
}

// DeleteSession removes the session for a given day and resyncs the streak.
func (s *SessionService) DeleteSession(ctx context.Context, clerkID string, date time.Time) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		DELETE FROM reading_sessions
		WHERE user_id = $1 AND session_date = $2
	`, userID, date)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	s.syncTotalPages(ctx, userID)

	if _, err := s.streaks.OnNewSession(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("streak resync failed after deleting session")
	}

	return nil
}

// syncTotalPages refreshes the denormalized page counter on the users row.
// Best effort: achievements and stats read it, but the session row is the
// source of truth and the next write repairs any drift.
func (s *SessionService) syncTotalPages(ctx context.Context, userID uuid.UUID) {
	_, err := s.db.Exec(ctx, `
		UPDATE users
		SET total_pages_read = (
			SELECT COALESCE(SUM(pages_read), 0)
			FROM reading_sessions
			WHERE user_id = $1
		)
		WHERE id = $1
	`, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to sync total pages read")
	}
}

func (s *SessionService) GetSessions(ctx context.Context, clerkID string, limit int) ([]*session.ReadingSession, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, book_id, session_date, pages_read, note, logged_at
		FROM reading_sessions
		WHERE user_id = $1
		ORDER BY session_date DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.ReadingSession
	for rows.Next() {
		sess := &session.ReadingSession{}
		err := rows.Scan(&sess.ID, &sess.UserID, &sess.BookID, &sess.SessionDate, &sess.PagesRead, &sess.Note, &sess.LoggedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if sessions == nil {
		sessions = []*session.ReadingSession{}
	}
	return sessions, nil
}

func (s *SessionService) GetWeeklyDaysRead(ctx context.Context, clerkID string) (*stats.DaysStat, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT COALESCE(COUNT(DISTINCT session_date) FILTER (WHERE pages_read > 0), 0) as days_read
	FROM reading_sessions
	WHERE user_id = $1
		AND session_date >= DATE_TRUNC('week', CURRENT_DATE)
		AND session_date <= CURRENT_DATE
	`

	stat := &stats.DaysStat{Period: "week", TotalDays: 7}
	err = s.db.QueryRow(ctx, query, userID).Scan(&stat.DaysRead)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly stats: %w", err)
	}

	return stat, nil
}

func (s *SessionService) GetMonthlyDaysRead(ctx context.Context, clerkID string) (*stats.DaysStat, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT COALESCE(COUNT(DISTINCT session_date) FILTER (WHERE pages_read > 0), 0) as days_read
	FROM reading_sessions
	WHERE user_id = $1
		AND session_date >= DATE_TRUNC('month', CURRENT_DATE)
		AND session_date <= CURRENT_DATE
	`

	daysInMonth := time.Now().AddDate(0, 1, -time.Now().Day()).Day()
	stat := &stats.DaysStat{Period: "month", TotalDays: daysInMonth}
	err = s.db.QueryRow(ctx, query, userID).Scan(&stat.DaysRead)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly stats: %w", err)
	}

	return stat, nil
}

func (s *SessionService) GetYearlyDaysRead(ctx context.Context, clerkID string) (*stats.DaysStat, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT COALESCE(COUNT(DISTINCT session_date) FILTER (WHERE pages_read > 0), 0) as days_read
	FROM reading_sessions
	WHERE user_id = $1
		AND session_date >= DATE_TRUNC('year', CURRENT_DATE)
		AND session_date <= CURRENT_DATE
	`

	now := time.Now()
	daysInYear := 365
	if now.Year()%4 == 0 && (now.Year()%100 != 0 || now.Year()%400 == 0) {
		daysInYear = 366
	}

	stat := &stats.DaysStat{Period: "year", TotalDays: daysInYear}
	err = s.db.QueryRow(ctx, query, userID).Scan(&stat.DaysRead)
	if err != nil {
		return nil, fmt.Errorf("failed to get yearly stats: %w", err)
	}

	return stat, nil
}

func (s *SessionService) GetAllTimeDaysRead(ctx context.Context, clerkID string) (*stats.DaysStat, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		COALESCE(COUNT(DISTINCT session_date) FILTER (WHERE pages_read > 0), 0) as days_read,
		COALESCE(COUNT(DISTINCT session_date), 0) as total_days
	FROM reading_sessions
	WHERE user_id = $1
	`

	stat := &stats.DaysStat{Period: "all_time"}
	err = s.db.QueryRow(ctx, query, userID).Scan(&stat.DaysRead, &stat.TotalDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get all time stats: %w", err)
	}

	return stat, nil
}

func (s *SessionService) GetCalendar(ctx context.Context, clerkID string, year int, month int) (*calendar.CalendarResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	query := `
	SELECT session_date, pages_read
	FROM reading_sessions
	WHERE user_id = $1
		AND session_date >= $2
		AND session_date <= $3
	ORDER BY session_date
	`

	rows, err := s.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer rows.Close()

	type dayEntry struct {
		read  bool
		pages int
	}
	dayMap := make(map[string]dayEntry)
	for rows.Next() {
		var date time.Time
		var pages int
		if err := rows.Scan(&date, &pages); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dayMap[date.Format(streak.DateLayout)] = dayEntry{read: pages > 0, pages: pages}
	}

	var days []*calendar.CalendarDay
	today := time.Now().In(s.loc).Format(streak.DateLayout)

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(streak.DateLayout)
		entry := dayMap[dateStr]
		day := &calendar.CalendarDay{
			Date:      d,
			ReadToday: entry.read,
			PagesRead: entry.pages,
			IsToday:   dateStr == today,
		}
		days = append(days, day)
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}

// GetReadingFeed mixes recent friend sessions with sessions from other
// readers. Friends fill up to 30 of the 50 slots; the rest comes from the
// wider pool so new users still see a live feed.
func (s *SessionService) GetReadingFeed(ctx context.Context, clerkID string) ([]session.ReadingPost, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	WITH friend_posts AS (
		SELECT
			rs.id,
			rs.user_id,
			u.username,
			u.image_url AS user_image_url,
			b.title AS book_title,
			rs.pages_read,
			rs.note,
			rs.session_date,
			rs.logged_at,
			'friend' AS source_type
		FROM reading_sessions rs
		JOIN users u ON u.id = rs.user_id
		LEFT JOIN books b ON b.id = rs.book_id
		WHERE rs.user_id != $1
			AND rs.logged_at >= NOW() - INTERVAL '5 days'
			AND rs.user_id IN (
				SELECT friend_id FROM friendships
				WHERE user_id = $1 AND status = 'accepted'
				UNION
				SELECT user_id FROM friendships
				WHERE friend_id = $1 AND status = 'accepted'
			)
		ORDER BY rs.logged_at DESC
		LIMIT 30
	),
	friend_count AS (
		SELECT COUNT(*) as cnt FROM friend_posts
	),
	other_posts AS (
		SELECT
			rs.id,
			rs.user_id,
			u.username,
			u.image_url AS user_image_url,
			b.title AS book_title,
			rs.pages_read,
			rs.note,
			rs.session_date,
			rs.logged_at,
			'other' AS source_type
		FROM reading_sessions rs
		JOIN users u ON u.id = rs.user_id
		LEFT JOIN books b ON b.id = rs.book_id
		WHERE rs.user_id != $1
			AND rs.logged_at >= NOW() - INTERVAL '5 days'
			AND rs.note IS NOT NULL
			AND rs.user_id NOT IN (
				SELECT friend_id FROM friendships
				WHERE user_id = $1 AND status = 'accepted'
				UNION
				SELECT user_id FROM friendships
				WHERE friend_id = $1 AND status = 'accepted'
			)
		ORDER BY rs.logged_at DESC
		LIMIT GREATEST(20, 50 - (SELECT cnt FROM friend_count))
	)
	SELECT
		id, user_id, username, user_image_url, book_title,
		pages_read, note, session_date, logged_at, source_type
	FROM (
		SELECT * FROM friend_posts
		UNION ALL
		SELECT * FROM other_posts
	) AS combined_feed
	ORDER BY logged_at DESC
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	defer rows.Close()

	var posts []session.ReadingPost
	for rows.Next() {
		var post session.ReadingPost
		err := rows.Scan(
			&post.ID,
			&post.UserID,
			&post.Username,
			&post.UserImageURL,
			&post.BookTitle,
			&post.PagesRead,
			&post.Note,
			&post.SessionDate,
			&post.LoggedAt,
			&post.SourceType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	if posts == nil {
		posts = []session.ReadingPost{}
	}
	return posts, nil
}
