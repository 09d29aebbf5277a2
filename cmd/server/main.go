package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Simplici0/costdesk/internal/archive"
	"github.com/Simplici0/costdesk/internal/auth"
	"github.com/Simplici0/costdesk/internal/config"
	"github.com/Simplici0/costdesk/internal/db"
	"github.com/Simplici0/costdesk/internal/migrations"
	"github.com/Simplici0/costdesk/internal/schedule"
	"github.com/Simplici0/costdesk/internal/seed"
	"github.com/Simplici0/costdesk/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	logger        *zap.Logger
	auth          *auth.Service
	archives      *archive.Store
	planner       *schedule.Planner
	secureCookies bool
	now           func() time.Time
}

func main() {
	cfg := config.Load()

	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	for _, w := range cfg.Warnings() {
		logger.Warn("config", zap.String("warning", w))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Up(database, logger.Named("migrations")); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	stats, err := seed.Run(database, seed.Config{BootstrapAccessToken: cfg.BootstrapAccessToken})
	if err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts), zap.Int("skipped", stats.Skipped))

	planner := schedule.NewPlanner(workspace.New(database), logger.Named("schedule"))
	if err := planner.Load(context.Background()); err != nil {
		logger.Fatal("failed to load schedule", zap.Error(err))
	}

	var mailer auth.Mailer = auth.LogMailer{Logger: logger.Named("mail")}
	if cfg.SMTPEnabled() {
		mailer = auth.SMTPMailer{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}
	}

	authService := auth.NewService(auth.Options{
		Secret:        []byte(cfg.SessionSecret),
		AllowedEmails: cfg.AllowedEmails,
		LinkBaseURL:   cfg.MagicLinkBaseURL,
		LinkTTL:       cfg.MagicLinkTTL,
		SessionTTL:    cfg.SessionTTL,
		LoginAttempts: cfg.LoginRateLimit,
		LoginWindow:   time.Hour,
	}, auth.NewTokenStore(database), mailer, logger.Named("auth"))

	srv := &server{
		logger:        logger,
		auth:          authService,
		archives:      archive.NewStore(database, logger),
		planner:       planner,
		secureCookies: !cfg.IsDev(),
		now:           time.Now,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

// routes builds the HTTP handler. Everything under /api requires a session.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/magic-link", s.handleMagicLink)
		r.Get("/verify", s.handleVerifyLink)
		r.Post("/token", s.handleTokenLogin)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/session", s.handleSession)
		r.Get("/convert", s.handleConvert)

		r.Route("/calc", func(r chi.Router) {
			r.Post("/pricing", s.handlePricing)
			r.Post("/freight", s.handleFreight)
			r.Post("/financing", s.handleFinancing)
			r.Post("/vendors", s.handleVendorRanking)
			r.Post("/vendors/trade", s.handleVendorTrades)
			r.Post("/products", s.handleProducts)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.handleGetSchedule)
			r.Put("/po", s.handleSetPO)
			r.Post("/rows", s.handleAddRow)
			r.Patch("/rows/{id}", s.handleUpdateRow)
			r.Delete("/rows/{id}", s.handleDeleteRow)
			r.Put("/allocations", s.handlePutAllocation)
			r.Delete("/allocations/{name}", s.handleDeleteAllocation)
			r.Get("/export.pdf", s.handleSchedulePDF)
			r.Get("/export.xlsx", s.handleScheduleExcel)
		})

		r.Post("/vendors/export.xlsx", s.handleVendorExcel)

		r.Route("/archives", func(r chi.Router) {
			r.Get("/", s.handleListArchives)
			r.Post("/", s.handleCreateArchive)
			r.Get("/{id}", s.handleGetArchive)
			r.Delete("/{id}", s.handleDeleteArchive)
			r.Post("/{id}/load", s.handleLoadArchive)
		})

		r.Route("/admin/tokens", func(r chi.Router) {
			r.Use(s.requireOperator)
			r.Get("/", s.handleListTokens)
			r.Post("/", s.handleIssueToken)
			r.Delete("/{id}", s.handleRevokeToken)
		})
	})

	return r
}

func initLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return zapCfg.Build()
}
