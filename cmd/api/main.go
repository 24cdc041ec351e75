package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trip-planner/internal/api"
	"trip-planner/internal/api/middleware"
	"trip-planner/internal/config"
	"trip-planner/internal/jobs"
	"trip-planner/internal/modules/history"
	"trip-planner/internal/modules/planner"
	"trip-planner/internal/web"
	"trip-planner/pkg/email"
	"trip-planner/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load configuration")
	}
	utils.InitLogger(cfg.AppName, cfg.LogLevel)

	sessionSecret, generated, err := utils.ResolveSigningSecret(cfg.SessionSecret)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create session secret")
	}
	if generated {
		utils.Logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	e := echo.New()
	e.HideBanner = true

	renderer, err := web.NewRenderer()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse page templates")
	}
	e.Renderer = renderer

	// 2. --- Middleware ---
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.ClientOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	// 3. --- Trip history (optional) ---
	var (
		historyService *history.Service
		historyHandler *history.Handler
		recorder       planner.TripRecorder
		purger         jobs.HistoryPurger
	)
	if cfg.HistoryEnabled() {
		dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Unable to create connection pool")
		}
		defer dbPool.Close()

		if err := dbPool.Ping(context.Background()); err != nil {
			utils.Logger.WithError(err).Fatal("Unable to ping database")
		}

		historyRepo := history.NewRepository(dbPool)
		if err := historyRepo.EnsureSchema(context.Background()); err != nil {
			utils.Logger.WithError(err).Fatal("Unable to prepare trip history schema")
		}
		historyService = history.NewService(historyRepo, cfg.HistoryRetention)
		historyHandler = history.NewHandler(historyService)
		recorder, purger = historyService, historyService
		utils.Logger.Info("Trip history enabled")
	}

	// 4. --- Trip summary e-mail (optional) ---
	var mailer email.ServiceInterface
	var templates *email.TemplateManager
	if cfg.EmailEnabled() {
		sender, err := email.NewSESV2Sender(context.Background(), cfg.SESRegion, cfg.SESFromEmail)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to initialise SES sender")
		}
		templates, err = email.NewTemplateManager()
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to parse email templates")
		}
		mailer = sender
		utils.Logger.Info("Trip summary email enabled")
	}

	// 5. --- Backend client ---
	clientOpts := planner.ClientOptions{
		BaseURL:      cfg.BackendBaseURL,
		Endpoint:     cfg.TripEndpoint,
		Timeout:      cfg.RequestTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}
	if cfg.BackendOAuthEnabled() {
		clientOpts.HTTPClient = planner.NewOAuthHTTPClient(context.Background(),
			cfg.BackendOAuthTokenURL, cfg.BackendOAuthClientID, cfg.BackendOAuthClientSecret, cfg.OAuthScopes())
	}
	client, err := planner.NewClient(clientOpts)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid backend configuration")
	}
	utils.Logger.WithField("endpoint", client.Endpoint()).Info("Trip backend configured")

	plannerService := planner.NewService(client, recorder, mailer, templates)
	plannerHandler := planner.NewHandler(plannerService)

	// 6. --- Routes ---
	api.SetupRoutes(e, plannerHandler, historyHandler, api.RouteConfig{
		Session: middleware.SessionConfig{
			Secret:       sessionSecret,
			TTL:          cfg.SessionTTL,
			SecureCookie: cfg.CookieSecure,
		},
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})

	// 7. --- Background jobs ---
	scheduler, err := jobs.NewScheduler(plannerService, cfg.SessionIdleTTL, purger)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule background jobs")
	}
	scheduler.Start()

	// 8. --- Start server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("Shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := e.Shutdown(ctx); err != nil {
		utils.Logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := plannerService.Close(ctx); err != nil {
		utils.Logger.WithError(err).Warn("In-flight trip requests abandoned")
	}
	utils.Logger.Info("Server exiting")
}
