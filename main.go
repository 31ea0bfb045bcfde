package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pageTurnerAPI/handlers"
	"pageTurnerAPI/internal/config"
	"pageTurnerAPI/internal/notification"
	"pageTurnerAPI/jobs"
	"pageTurnerAPI/middleware"
	"pageTurnerAPI/services"

	_ "net/http/pprof"
)

var (
	logger              zerolog.Logger
	cfg                 config.AppConfig
	dbPool              *pgxpool.Pool
	metrics             *middleware.Metrics
	userService         *services.UserService
	sessionService      *services.SessionService
	streakService       *services.StreakService
	bookService         *services.BookService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
	reconciler          *jobs.StreakReconciler
)

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var err error
	cfg, err = config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	logger.Info().Msg("Clerk initialized")

	loc, err := time.LoadLocation(cfg.ReferenceTimezone)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.ReferenceTimezone).Msg("invalid reference timezone")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse database URL")
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create connection pool")
	}

	if err := dbPool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping database")
	}
	logger.Info().Msg("connected to PostgreSQL")

	metrics = middleware.NewMetrics(prometheus.DefaultRegisterer)

	notificationService = services.NewNotificationService(dbPool, logger.With().Str("component", "notifications").Logger())
	userService = services.NewUserService(dbPool, logger.With().Str("component", "users").Logger())
	userService.SetNotificationService(notificationService)
	streakService = services.NewStreakService(dbPool, loc, logger.With().Str("component", "streaks").Logger())
	streakService.SetNotificationService(notificationService)
	streakService.SetUserService(userService)
	streakService.SetMetrics(metrics)
	sessionService = services.NewSessionService(dbPool, streakService, loc, logger.With().Str("component", "sessions").Logger())
	bookService = services.NewBookService(dbPool)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, leaderboard cache disabled")
		} else {
			userService.SetCache(rdb)
			logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis leaderboard cache enabled")
		}
	}

	fcmService, err = notification.NewFCMService(cfg.FCMCredentialsFile, logger.With().Str("component", "fcm").Logger())
	if err != nil {
		logger.Warn().Err(err).Msg("could not initialize FCM, push notifications disabled")
	} else {
		notificationService.Dispatcher().SetPushProvider(fcmService)
		logger.Info().Msg("FCM push provider initialized")
	}

	reconciler = jobs.NewStreakReconciler(dbPool, streakService, notificationService, cfg.ReminderHourUTC, logger.With().Str("component", "reconciler").Logger())
}

func main() {
	defer func() {
		logger.Info().Msg("closing database connection pool")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	sessionHandler := handlers.NewSessionHandler(sessionService, streakService)
	bookHandler := handlers.NewBookHandler(bookService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret, logger.With().Str("component", "webhooks").Logger())

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(cfg.TrustProxyHeaders)
	go rateLimiter.CleanupVisitors()

	r.Use(rateLimiter.Middleware)
	r.Use(metrics.Middleware)

	r.Handle("/metrics", middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPass, promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurity(cfg.PprofSecret, http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "pageturner-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuth(logger.With().Str("component", "auth").Logger()))

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/friends", userHandler.GetFriends).Methods("GET")
	protected.HandleFunc("/user/friends", userHandler.AddFriend).Methods("POST")
	protected.HandleFunc("/user/friends", userHandler.RemoveFriend).Methods("DELETE")
	protected.HandleFunc("/user/discovery", userHandler.GetDiscovery).Methods("GET")
	protected.HandleFunc("/user/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/user/achievements", userHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/user/stats", userHandler.GetUserStats).Methods("GET")
	protected.HandleFunc("/user/leaderboard/friends", userHandler.GetFriendsLeaderboard).Methods("GET")
	protected.HandleFunc("/user/leaderboard/global", userHandler.GetGlobalLeaderboard).Methods("GET")

	protected.HandleFunc("/user/streak", sessionHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/user/streak/recalculate", sessionHandler.RecalculateStreak).Methods("POST")

	protected.HandleFunc("/sessions", sessionHandler.LogSession).Methods("POST")
	protected.HandleFunc("/sessions", sessionHandler.GetSessions).Methods("GET")
	protected.HandleFunc("/sessions", sessionHandler.DeleteSession).Methods("DELETE")
	protected.HandleFunc("/sessions/feed", sessionHandler.GetReadingFeed).Methods("GET")
	protected.HandleFunc("/user/calendar", sessionHandler.GetCalendar).Methods("GET")
	protected.HandleFunc("/user/stats/weekly", sessionHandler.GetWeeklyDaysRead).Methods("GET")
	protected.HandleFunc("/user/stats/monthly", sessionHandler.GetMonthlyDaysRead).Methods("GET")
	protected.HandleFunc("/user/stats/yearly", sessionHandler.GetYearlyDaysRead).Methods("GET")
	protected.HandleFunc("/user/stats/all-time", sessionHandler.GetAllTimeDaysRead).Methods("GET")

	protected.HandleFunc("/books/search", bookHandler.SearchBooks).Methods("GET")
	protected.HandleFunc("/books/{id}", bookHandler.GetBook).Methods("GET")
	protected.HandleFunc("/library", bookHandler.GetLibrary).Methods("GET")
	protected.HandleFunc("/library", bookHandler.AddToLibrary).Methods("POST")
	protected.HandleFunc("/library", bookHandler.UpdateLibraryEntry).Methods("PUT")
	protected.HandleFunc("/library/{id}", bookHandler.RemoveFromLibrary).Methods("DELETE")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	if err := reconciler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start streak reconciler")
	}

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("error starting server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	reconciler.Stop()
	notificationService.Dispatcher().Stop()

	logger.Info().Msg("server shutdown complete")
}
