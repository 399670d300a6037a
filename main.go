package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"focusFlowAPI/handlers"
	"focusFlowAPI/internal/config"
	"focusFlowAPI/middleware"
	"focusFlowAPI/services"

	_ "net/http/pprof"
)

var (
	cfg             *config.Config
	dbPool          *pgxpool.Pool
	userService     *services.UserService
	streakService   *services.StreakService
	progressService *services.ChallengeProgressService
	boardService    *services.LeaderboardService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Println("Clerk initialized successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	userService = services.NewUserService(dbPool)
	streakService = services.NewStreakService(dbPool)
	progressService = services.NewChallengeProgressService(dbPool)
	boardService = services.NewLeaderboardService(dbPool)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	streakHandler := handlers.NewStreakHandler(streakService, userService)
	challengeHandler := handlers.NewChallengeHandler(progressService, boardService, userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass, promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret, http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "focusFlow-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER (all routes require auth)
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.ClerkAuthMiddleware)

	api.HandleFunc("/streak", streakHandler.GetStreak).Methods("GET")
	api.HandleFunc("/streak/session", streakHandler.RecordSession).Methods("POST")
	api.HandleFunc("/streak/visibility", streakHandler.ToggleVisibility).Methods("PUT")
	api.HandleFunc("/streak/{userID}", streakHandler.GetUserStreak).Methods("GET")

	api.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	api.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	api.HandleFunc("/challenges/progress", challengeHandler.ApplyProgress).Methods("POST")
	api.HandleFunc("/challenges/{challengeID}/join", challengeHandler.JoinChallenge).Methods("POST")
	api.HandleFunc("/challenges/{challengeID}/leaderboard", challengeHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/challenges/{challengeID}/progress", challengeHandler.GetUserProgress).Methods("GET")
	api.HandleFunc("/challenges/{challengeID}", challengeHandler.DeactivateChallenge).Methods("DELETE")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
