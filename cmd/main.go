package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/s/trainingHub/internal/auth"
	"github.com/s/trainingHub/internal/config"
	"github.com/s/trainingHub/internal/database"
	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/handlers/admin"
	"github.com/s/trainingHub/internal/handlers/planner"
	"github.com/s/trainingHub/internal/logger"
	"github.com/s/trainingHub/internal/middleware"
	"github.com/s/trainingHub/internal/models"
	"github.com/s/trainingHub/internal/storage"
)

func main() {
	// ---------------------------
	// 0. Configuration and logging
	// ---------------------------
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid logger settings")
	}
	for _, warning := range cfg.Warnings {
		log.Warn().Msg(warning)
	}

	// ---------------------------
	// 1. Database
	// ---------------------------
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	// ---------------------------
	// 2. Migrations
	// ---------------------------
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// ---------------------------
	// 3. Seed data and bootstrap admin
	// ---------------------------
	seed, err := database.LoadSeed(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("seed data unreadable")
	}
	ctx := context.Background()
	if err := database.Seed(ctx, db, seed, log); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	if err := database.EnsureAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	// ---------------------------
	// 4. Google OAuth (optional)
	// ---------------------------
	var oauthConfig *oauth2.Config
	if cfg.GoogleEnabled() {
		oauthConfig = auth.InitGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		log.Info().Msg("google sign-in disabled")
	}

	// ---------------------------
	// 5. Sessions
	// ---------------------------
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	// ---------------------------
	// 6. Handlers
	// ---------------------------
	h := handlers.NewHandler(db, store, oauthConfig, handlers.Options{
		RoleCheckTimeout: cfg.RoleCheckTimeout,
		SchedulingLinks:  seed.SchedulingLinks,
	}, log)
	defer h.Auth.Close()

	unsubscribe := h.Auth.Subscribe(func(ctx context.Context, e auth.Event) {
		if e.UserID == "" {
			return
		}
		action := models.ActionSignIn
		if e.Kind == auth.EventSignedOut {
			action = models.ActionSignOut
		}
		if err := storage.LogActivity(ctx, db, e.UserID, "", action, nil); err != nil {
			log.Error().Err(err).Str("user_id", e.UserID).Msg("activity log write failed")
		}
	})
	defer unsubscribe()

	// ---------------------------
	// 7. Server
	// ---------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.RequestLogging(log)(routes(h, cfg)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("starting graceful shutdown")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
			srv.Close()
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}

func routes(h *handlers.Handler, cfg config.Config) *mux.Router {
	adminService := admin.Service{Handler: *h}
	plannerService := planner.Service{Handler: *h}

	gated := middleware.AccessGate(h)
	adminOnly := middleware.RequireAdmin(h)
	signInLimit := middleware.SignInRateLimit(cfg.SignInRateLimit)

	r := mux.NewRouter()
	r.Use(middleware.Metrics, middleware.SecurityHeaders, middleware.ResolveSession(h), middleware.LocationScope(h))
	r.NotFoundHandler = middleware.Metrics(middleware.SecurityHeaders(http.HandlerFunc(h.HandleNotFound)))

	// --- Ops ---
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// --- Views ---
	r.HandleFunc("/", h.HandleRoot).Methods("GET")
	r.HandleFunc("/training", gated(h.HandleTrainingPage)).Methods("GET")
	r.HandleFunc("/training/{subjectId}", gated(h.HandleSubjectPage)).Methods("GET")
	r.HandleFunc("/report", gated(h.HandleReportPage)).Methods("GET")
	r.HandleFunc("/automation", gated(plannerService.HandlePlannerPage)).Methods("GET")
	r.HandleFunc("/admin", adminService.HandleAdminPage).Methods("GET")
	r.HandleFunc("/api/gate", h.GateAPI).Methods("GET")

	// --- Auth ---
	r.HandleFunc("/api/auth/sign-in", signInLimit(h.SignInAPI)).Methods("POST")
	r.HandleFunc("/api/auth/sign-out", h.SignOutAPI).Methods("POST")
	r.HandleFunc("/api/auth/session", h.SessionAPI).Methods("GET")
	r.HandleFunc("/auth/google/login", h.HandleGoogleLogin).Methods("GET")
	r.HandleFunc("/auth/google/callback", h.HandleGoogleCallback).Methods("GET")

	// --- Training ---
	r.HandleFunc("/api/videos/{id}/watched", gated(h.MarkWatchedAPI)).Methods("POST")

	// --- Onboarding ---
	r.HandleFunc("/api/onboarding", h.OnboardingAPI).Methods("GET")
	r.HandleFunc("/api/onboarding/check", h.OnboardingCheckAPI).Methods("POST")
	r.HandleFunc("/api/onboarding/continue", h.OnboardingContinueAPI).Methods("POST")
	r.HandleFunc("/api/onboarding/back", h.OnboardingBackAPI).Methods("POST")
	r.HandleFunc("/api/onboarding/finish", h.OnboardingFinishAPI).Methods("POST")

	// --- Automation ---
	r.HandleFunc("/api/automation/boards", gated(plannerService.ListBoardsAPI)).Methods("GET")
	r.HandleFunc("/api/automation/boards", gated(plannerService.CreateBoardAPI)).Methods("POST")
	r.HandleFunc("/api/automation/boards/{id}", gated(plannerService.BoardAPI)).Methods("GET")
	r.HandleFunc("/api/automation/boards/{id}", gated(plannerService.DeleteBoardAPI)).Methods("DELETE")
	r.HandleFunc("/api/automation/boards/{id}/columns", gated(plannerService.AddColumnAPI)).Methods("POST")
	r.HandleFunc("/api/automation/boards/{id}/pointer", gated(plannerService.PointerAPI)).Methods("POST")
	r.HandleFunc("/api/automation/columns/{id}", gated(plannerService.RenameColumnAPI)).Methods("PATCH")
	r.HandleFunc("/api/automation/columns/{id}", gated(plannerService.DeleteColumnAPI)).Methods("DELETE")
	r.HandleFunc("/api/automation/cards/{id}", gated(plannerService.CardAPI)).Methods("GET")
	r.HandleFunc("/api/automation/cards/{id}", gated(plannerService.UpdateCardAPI)).Methods("PATCH")
	r.HandleFunc("/api/automation/cards/{id}", gated(plannerService.DeleteCardAPI)).Methods("DELETE")

	// --- Admin API ---
	r.HandleFunc("/api/admin/subjects", adminOnly(adminService.ListSubjectsAPI)).Methods("GET")
	r.HandleFunc("/api/admin/subjects", adminOnly(adminService.CreateSubjectAPI)).Methods("POST")
	r.HandleFunc("/api/admin/subjects/{id}", adminOnly(adminService.UpdateSubjectAPI)).Methods("PATCH")
	r.HandleFunc("/api/admin/subjects/{id}", adminOnly(adminService.DeleteSubjectAPI)).Methods("DELETE")
	r.HandleFunc("/api/admin/subjects/{id}/videos", adminOnly(adminService.CreateVideoAPI)).Methods("POST")
	r.HandleFunc("/api/admin/videos/{id}", adminOnly(adminService.UpdateVideoAPI)).Methods("PATCH")
	r.HandleFunc("/api/admin/videos/{id}", adminOnly(adminService.DeleteVideoAPI)).Methods("DELETE")

	r.HandleFunc("/api/admin/roles", adminOnly(adminService.ListRolesAPI)).Methods("GET")
	r.HandleFunc("/api/admin/roles", adminOnly(adminService.GrantRoleAPI)).Methods("POST")
	r.HandleFunc("/api/admin/roles/{id}", adminOnly(adminService.RevokeRoleAPI)).Methods("DELETE")

	r.HandleFunc("/api/admin/onboarding/steps", adminOnly(adminService.ListStepsAPI)).Methods("GET")
	r.HandleFunc("/api/admin/onboarding/steps", adminOnly(adminService.CreateStepAPI)).Methods("POST")
	r.HandleFunc("/api/admin/onboarding/steps/{id}", adminOnly(adminService.UpdateStepAPI)).Methods("PATCH")
	r.HandleFunc("/api/admin/onboarding/steps/{id}", adminOnly(adminService.DeleteStepAPI)).Methods("DELETE")

	return r
}
