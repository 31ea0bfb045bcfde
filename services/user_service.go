package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pageTurnerAPI/internal/achievement"
	"pageTurnerAPI/internal/leaderboard"
	"pageTurnerAPI/internal/notification"
	"pageTurnerAPI/internal/stats"
	"pageTurnerAPI/internal/user"
	"pageTurnerAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const globalLeaderboardCacheKey = "leaderboard:global:v1"
const globalLeaderboardCacheTTL = 60 * time.Second

type UserService struct {
	db            *pgxpool.Pool
	cache         *redis.Client
	notifications *NotificationService
	log           zerolog.Logger
}

func NewUserService(db *pgxpool.Pool, logger zerolog.Logger) *UserService {
	return &UserService{db: db, log: logger}
}

// SetCache wires the optional Redis client used for the global leaderboard.
func (s *UserService) SetCache(rdb *redis.Client) {
	s.cache = rdb
}

// SetNotificationService wires the optional friend-added notifications.
func (s *UserService) SetNotificationService(notifications *NotificationService) {
	s.notifications = notifications
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, email_verified,
	       created_at, updated_at, total_pages_read, current_streak, longest_streak,
	       streak_freezes, last_activity_date
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.TotalPagesRead,
		&u.CurrentStreak,
		&u.LongestStreak,
		&u.StreakFreezes,
		&u.LastActivityDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	updates := []string{}
	args := []interface{}{clerkID}
	argCount := 2

	if req.Username != "" {
		updates = append(updates, fmt.Sprintf("username = $%d", argCount))
		args = append(args, req.Username)
		argCount++
	}
	if req.FirstName != "" {
		updates = append(updates, fmt.Sprintf("first_name = $%d", argCount))
		args = append(args, req.FirstName)
		argCount++
	}
	if req.LastName != "" {
		updates = append(updates, fmt.Sprintf("last_name = $%d", argCount))
		args = append(args, req.LastName)
		argCount++
	}
	if req.ImageURL != "" {
		updates = append(updates, fmt.Sprintf("image_url = $%d", argCount))
		args = append(args, req.ImageURL)
		argCount++
	}

	if len(updates) == 0 {
		return s.GetUserByClerkID(ctx, clerkID)
	}

	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`
	UPDATE users SET %s
	WHERE clerk_id = $1
	`, strings.Join(updates, ", "))

	_, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1
	`, clerkID, verified)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

func (s *UserService) GetFriends(ctx context.Context, clerkID string) ([]*user.User, error) {
	query := `
    SELECT DISTINCT
        u.id,
        u.clerk_id,
        u.email,
        u.username,
        u.first_name,
        u.last_name,
        u.image_url,
        u.email_verified,
        u.created_at,
        u.updated_at
    FROM users u
    INNER JOIN friendships f ON (
        (f.user_id = u.id AND f.friend_id = (SELECT id FROM users WHERE clerk_id = $1))
        OR
        (f.friend_id = u.id AND f.user_id = (SELECT id FROM users WHERE clerk_id = $1))
    )
    WHERE f.status = 'accepted'
    AND u.clerk_id != $1
    ORDER BY u.username
    `

	rows, err := s.db.Query(ctx, query, clerkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []*user.User
	for rows.Next() {
		var u user.User
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.ImageURL,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		friends = append(friends, &u)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if friends == nil {
		friends = []*user.User{}
	}

	return friends, nil
}

func (s *UserService) GetDiscovery(ctx context.Context, clerkID string) ([]*user.User, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		u.id,
		u.clerk_id,
		u.email,
		u.username,
		u.first_name,
		u.last_name,
		u.image_url,
		u.email_verified,
		u.created_at,
		u.updated_at
	FROM users u
	WHERE u.id != $1
		AND u.id NOT IN (
			SELECT f.friend_id
			FROM friendships f
			WHERE f.user_id = $1 AND f.status = 'accepted'
			UNION
			SELECT f.user_id
			FROM friendships f
			WHERE f.friend_id = $1 AND f.status = 'accepted'
		)
	ORDER BY RANDOM()
	LIMIT 30
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.ImageURL,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if users == nil {
		users = []*user.User{}
	}

	return users, nil
}

func (s *UserService) AddFriend(ctx context.Context, clerkID string, friendClerkID string) error {
	var userID uuid.UUID
	var username string
	err := s.db.QueryRow(ctx, `SELECT id, username FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &username)
	if err != nil {
		s.log.Warn().Err(err).Str("clerk_id", clerkID).Msg("AddFriend: failed to find user")
		return fmt.Errorf("user not found")
	}

	var friendID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, friendClerkID).Scan(&friendID)
	if err != nil {
		s.log.Warn().Err(err).Str("clerk_id", friendClerkID).Msg("AddFriend: failed to find friend")
		return fmt.Errorf("friend user not found")
	}

	if userID == friendID {
		return fmt.Errorf("cannot add yourself as a friend")
	}

	var exists bool
	checkQuery := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2)
			   OR (user_id = $2 AND friend_id = $1)
		)
	`
	err = s.db.QueryRow(ctx, checkQuery, userID, friendID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing friendship")
	}
	if exists {
		return fmt.Errorf("friendship already exists")
	}

	insertQuery := `
		INSERT INTO friendships (user_id, friend_id, status, created_at)
		VALUES ($1, $2, 'accepted', NOW())
	`
	_, err = s.db.Exec(ctx, insertQuery, userID, friendID)
	if err != nil {
		s.log.Error().Err(err).Msg("AddFriend: failed to insert friendship")
		return fmt.Errorf("failed to create friendship")
	}

	if s.notifications != nil {
		req := &notification.CreateNotificationRequest{
			UserID: friendID,
			Type:   notification.NotificationFriendAdded,
			Title:  "New friend",
			Body:   fmt.Sprintf("%s added you as a friend.", username),
			Data: map[string]any{
				"friend_clerk_id": clerkID,
			},
		}
		if _, err := s.notifications.CreateNotification(ctx, req); err != nil {
			s.log.Warn().Err(err).Str("user_id", friendID.String()).Msg("AddFriend: failed to send friend-added notification")
		}
	}

	return nil
}

func (s *UserService) RemoveFriend(ctx context.Context, clerkID string, friendClerkID string) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found")
	}

	var friendID uuid.UUID
	err = s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, friendClerkID).Scan(&friendID)
	if err != nil {
		return fmt.Errorf("friend user not found")
	}

	deleteQuery := `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2)
		   OR (user_id = $2 AND friend_id = $1)
	`
	result, err := s.db.Exec(ctx, deleteQuery, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friendship")
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friendship not found")
	}

	return nil
}

func (s *UserService) SearchUsers(ctx context.Context, clerkID string, query string) ([]*user.User, error) {
	cleanQuery := strings.TrimSpace(query)
	searchPattern := "%" + cleanQuery + "%"
	startsWithPattern := cleanQuery + "%"

	sqlQuery := `
	SELECT
		id,
		clerk_id,
		email,
		username,
		first_name,
		last_name,
		image_url,
		email_verified,
		created_at,
		updated_at,
		similarity_score
	FROM (
		SELECT
			id,
			clerk_id,
			email,
			username,
			first_name,
			last_name,
			image_url,
			email_verified,
			created_at,
			updated_at,
			GREATEST(
				CASE
					WHEN LOWER(username) = LOWER($2) THEN 100
					WHEN LOWER(email) = LOWER($2) THEN 100
					WHEN LOWER(first_name) = LOWER($2) THEN 95
					WHEN LOWER(last_name) = LOWER($2) THEN 95
					WHEN LOWER(CONCAT(COALESCE(first_name, ''), ' ', COALESCE(last_name, ''))) = LOWER($2) THEN 100
					ELSE 0
				END,
				CASE
					WHEN LOWER(username) LIKE LOWER($3) THEN 90
					WHEN LOWER(first_name) LIKE LOWER($3) THEN 85
					WHEN LOWER(last_name) LIKE LOWER($3) THEN 85
					WHEN LOWER(CONCAT(COALESCE(first_name, ''), ' ', COALESCE(last_name, ''))) LIKE LOWER($3) THEN 88
					ELSE 0
				END,
				CASE
					WHEN LOWER(username) LIKE LOWER($1) THEN 70
					WHEN LOWER(first_name) LIKE LOWER($1) THEN 60
					WHEN LOWER(last_name) LIKE LOWER($1) THEN 60
					WHEN LOWER(CONCAT(COALESCE(first_name, ''), ' ', COALESCE(last_name, ''))) LIKE LOWER($1) THEN 65
					WHEN LOWER(email) LIKE LOWER($1) THEN 50
					ELSE 0
				END
			) AS similarity_score
		FROM users
		WHERE
			(
				username ILIKE $1 OR
				email ILIKE $1 OR
				first_name ILIKE $1 OR
				last_name ILIKE $1 OR
				CONCAT(COALESCE(first_name, ''), ' ', COALESCE(last_name, '')) ILIKE $1
			)
			AND clerk_id != $4
	) AS scored_users
	WHERE similarity_score >= 30
	ORDER BY
		similarity_score DESC,
		username
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, sqlQuery, searchPattern, cleanQuery, startsWithPattern, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		var similarityScore float64

		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Email,
			&u.Username,
			&u.FirstName,
			&u.LastName,
			&u.ImageURL,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
			&similarityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if users == nil {
		users = []*user.User{}
	}

	return users, nil
}

func (s *UserService) GetFriendsLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		COALESCE(w.days_this_week, 0) AS days_this_week,
		RANK() OVER (ORDER BY COALESCE(w.days_this_week, 0) DESC, u.current_streak DESC) AS rank,
		u.current_streak
	FROM users u
	LEFT JOIN (
		SELECT user_id, COUNT(DISTINCT session_date) AS days_this_week
		FROM reading_sessions
		WHERE pages_read > 0
			AND session_date >= DATE_TRUNC('week', CURRENT_DATE)
			AND session_date <= CURRENT_DATE
		GROUP BY user_id
	) w ON w.user_id = u.id
	WHERE u.id = $1
		OR u.id IN (
			SELECT friend_id FROM friendships
			WHERE user_id = $1 AND status = 'accepted'
			UNION
			SELECT user_id FROM friendships
			WHERE friend_id = $1 AND status = 'accepted'
		)
	ORDER BY days_this_week DESC, current_streak DESC
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	var userPosition *leaderboard.LeaderboardEntry

	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.DaysThisWeek,
			&entry.Rank,
			&entry.CurrentStreak,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, entry)

		if entry.UserID == userID {
			userPosition = entry
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}

func (s *UserService) GetGlobalLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	entries, err := s.globalLeaderboardEntries(ctx)
	if err != nil {
		return nil, err
	}

	var userPosition *leaderboard.LeaderboardEntry
	for _, entry := range entries {
		if entry.UserID == userID {
			userPosition = entry
			break
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}

// globalLeaderboardEntries serves the board from Redis when available. The
// board is identical for everyone, so a short TTL keeps the heavy query off
// the hot path.
func (s *UserService) globalLeaderboardEntries(ctx context.Context) ([]*leaderboard.LeaderboardEntry, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, globalLeaderboardCacheKey).Result()
		if err == nil {
			var entries []*leaderboard.LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("leaderboard cache read failed")
		}
	}

	query := `
	SELECT
		u.id AS user_id,
		u.username,
		u.image_url,
		COALESCE(w.days_this_week, 0) AS days_this_week,
		RANK() OVER (ORDER BY COALESCE(w.days_this_week, 0) DESC, u.current_streak DESC) AS rank,
		u.current_streak
	FROM users u
	LEFT JOIN (
		SELECT user_id, COUNT(DISTINCT session_date) AS days_this_week
		FROM reading_sessions
		WHERE pages_read > 0
			AND session_date >= DATE_TRUNC('week', CURRENT_DATE)
			AND session_date <= CURRENT_DATE
		GROUP BY user_id
	) w ON w.user_id = u.id
	ORDER BY days_this_week DESC, current_streak DESC
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.DaysThisWeek,
			&entry.Rank,
			&entry.CurrentStreak,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, entry)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, globalLeaderboardCacheKey, payload, globalLeaderboardCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("leaderboard cache write failed")
			}
		}
	}

	return entries, nil
}

func (s *UserService) GetAchievements(ctx context.Context, clerkID string) ([]*achievement.AchievementWithStatus, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		a.id,
		a.name,
		a.description,
		a.icon,
		a.criteria_type,
		a.criteria_value,
		a.created_at,
		CASE WHEN ua.id IS NOT NULL THEN true ELSE false END as unlocked,
		ua.unlocked_at
	FROM achievements a
	LEFT JOIN user_achievements ua ON a.id = ua.achievement_id AND ua.user_id = $1
	ORDER BY unlocked DESC, a.criteria_value ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*achievement.AchievementWithStatus

	for rows.Next() {
		ach := &achievement.AchievementWithStatus{}
		err := rows.Scan(
			&ach.ID,
			&ach.Name,
			&ach.Description,
			&ach.Icon,
			&ach.CriteriaType,
			&ach.CriteriaValue,
			&ach.CreatedAt,
			&ach.Unlocked,
			&ach.UnlockedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}

		achievements = append(achievements, ach)
	}

	if achievements == nil {
		achievements = []*achievement.AchievementWithStatus{}
	}

	return achievements, nil
}

// CheckAndAwardAchievements awards every achievement whose criteria the
// user now meets and returns the names of the newly unlocked ones.
func (s *UserService) CheckAndAwardAchievements(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
	WITH progress AS (
		SELECT
			(SELECT current_streak FROM users WHERE id = $1) AS current_streak,
			(SELECT total_pages_read FROM users WHERE id = $1) AS total_pages,
			(SELECT COUNT(DISTINCT session_date) FROM reading_sessions
			 WHERE user_id = $1 AND pages_read > 0) AS total_days,
			(SELECT COUNT(*) FROM friendships
			 WHERE (user_id = $1 OR friend_id = $1) AND status = 'accepted') AS friends
	),
	awarded AS (
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		SELECT $1, a.id, NOW()
		FROM achievements a, progress p
		WHERE (a.criteria_type = 'streak' AND p.current_streak >= a.criteria_value)
		   OR (a.criteria_type = 'total_days' AND p.total_days >= a.criteria_value)
		   OR (a.criteria_type = 'total_pages' AND p.total_pages >= a.criteria_value)
		   OR (a.criteria_type = 'friends' AND p.friends >= a.criteria_value)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
		RETURNING achievement_id
	)
	SELECT a.name
	FROM achievements a
	JOIN awarded ON awarded.achievement_id = a.id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to award achievements: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan awarded achievement: %w", err)
		}
		names = append(names, name)
	}

	return names, nil
}

func (s *UserService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT
		EXISTS(
			SELECT 1 FROM reading_sessions
			WHERE user_id = $1 AND session_date = CURRENT_DATE AND pages_read > 0
		) AS read_today,
		COALESCE(COUNT(DISTINCT rs_week.session_date) FILTER (WHERE rs_week.pages_read > 0), 0) AS days_this_week,
		COALESCE(COUNT(DISTINCT rs_month.session_date) FILTER (WHERE rs_month.pages_read > 0), 0) AS days_this_month,
		COALESCE(COUNT(DISTINCT rs_year.session_date) FILTER (WHERE rs_year.pages_read > 0), 0) AS days_this_year,
		COALESCE(COUNT(DISTINCT rs_all.session_date) FILTER (WHERE rs_all.pages_read > 0), 0) AS total_days_read,
		u.total_pages_read,
		u.current_streak,
		u.longest_streak,
		u.streak_freezes,
		COUNT(DISTINCT ua.achievement_id) AS achievements_count,
		COUNT(DISTINCT f.friend_id) FILTER (WHERE f.status = 'accepted') AS friends_count
	FROM users u
	LEFT JOIN reading_sessions rs_week ON u.id = rs_week.user_id
		AND rs_week.session_date >= DATE_TRUNC('week', CURRENT_DATE)
		AND rs_week.session_date <= CURRENT_DATE
	LEFT JOIN reading_sessions rs_month ON u.id = rs_month.user_id
		AND rs_month.session_date >= DATE_TRUNC('month', CURRENT_DATE)
		AND rs_month.session_date <= CURRENT_DATE
	LEFT JOIN reading_sessions rs_year ON u.id = rs_year.user_id
		AND rs_year.session_date >= DATE_TRUNC('year', CURRENT_DATE)
		AND rs_year.session_date <= CURRENT_DATE
	LEFT JOIN reading_sessions rs_all ON u.id = rs_all.user_id
	LEFT JOIN user_achievements ua ON u.id = ua.user_id
	LEFT JOIN friendships f ON u.id = f.user_id
	WHERE u.id = $1
	GROUP BY u.id, u.total_pages_read, u.current_streak, u.longest_streak, u.streak_freezes
	`

	st := &stats.UserStats{}
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.ReadToday,
		&st.DaysThisWeek,
		&st.DaysThisMonth,
		&st.DaysThisYear,
		&st.TotalDaysRead,
		&st.TotalPagesRead,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.StreakFreezes,
		&st.AchievementsCount,
		&st.FriendsCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	st.ReaderScore = utils.CalculateReaderScore(st.CurrentStreak, st.TotalDaysRead, st.AchievementsCount)

	rankQuery := `
	WITH user_scores AS (
		SELECT
			u.id,
			u.current_streak,
			COALESCE(COUNT(DISTINCT rs.session_date) FILTER (WHERE rs.pages_read > 0), 0) AS total_days,
			COALESCE(COUNT(DISTINCT ua.achievement_id), 0) AS achievements
		FROM users u
		LEFT JOIN reading_sessions rs ON u.id = rs.user_id
		LEFT JOIN user_achievements ua ON u.id = ua.user_id
		GROUP BY u.id
	),
	ranked_users AS (
		SELECT
			id,
			RANK() OVER (ORDER BY (current_streak * current_streak * 0.3) + (total_days * 0.05) + (achievements * 1.0) DESC) AS rank
		FROM user_scores
	)
	SELECT rank
	FROM ranked_users
	WHERE id = $1
	`

	err = s.db.QueryRow(ctx, rankQuery, userID).Scan(&st.Rank)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate rank: %w", err)
	}

	return st, nil
}
