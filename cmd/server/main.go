package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/config"
	"github.com/xeonarno/Alyra-blockquest/internal/database"
	"github.com/xeonarno/Alyra-blockquest/internal/handler"
	"github.com/xeonarno/Alyra-blockquest/internal/jobs"
	"github.com/xeonarno/Alyra-blockquest/internal/middleware"
	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/repository"
	"github.com/xeonarno/Alyra-blockquest/internal/repository/journal"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
	"github.com/xeonarno/Alyra-blockquest/internal/service/dice"
	"github.com/xeonarno/Alyra-blockquest/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize ledger backend
	var (
		backend  repository.Backend
		pinger   handler.Pinger
		snapshot *jobs.SnapshotWriter
	)
	switch cfg.Storage.Driver {
	case "surrealdb":
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			slog.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		surreal := repository.NewSurrealBackend(db)
		if err := surreal.EnsureSchema(ctx); err != nil {
			slog.Error("failed to apply schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		backend, pinger = surreal, db
		slog.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
		)

	default:
		mem := repository.NewMemoryBackend()
		if path := cfg.Storage.SnapshotPath; path != "" {
			switch err := mem.LoadSnapshot(path); {
			case err == nil:
				slog.Info("restored snapshot", slog.String("path", path))
			case errors.Is(err, os.ErrNotExist):
				slog.Info("no snapshot yet, starting empty", slog.String("path", path))
			default:
				slog.Error("failed to restore snapshot", slog.String("path", path), slog.String("error", err.Error()))
				os.Exit(1)
			}
			snapshot = jobs.NewSnapshotWriter(jobs.SnapshotWriterConfig{
				Backend:  mem,
				Path:     path,
				Interval: cfg.Storage.SnapshotInterval,
				Logger:   logger,
			})
		}
		backend = mem
	}

	// Event fan-out: live observers first, then the journal
	eventHub := service.NewEventHub()
	defer eventHub.Close()
	sinks := []repository.EventSink{eventHub}

	var eventJournal handler.EventJournal
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			slog.Error("failed to open journal", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = j.Close() }()
		sinks = append(sinks, j)
		eventJournal = j
	}

	store := repository.NewStore(repository.StoreConfig{
		Backend: backend,
		Sinks:   sinks,
		Logger:  logger,
	})
	ledger := service.LedgerFrom[*repository.Tx](store)

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	roller, err := dice.NewHostSource(cfg.Dice.Seed)
	if err != nil {
		slog.Error("failed to seed dice", slog.String("error", err.Error()))
		os.Exit(1)
	}

	renderer, err := service.NewCertificateRenderer()
	if err != nil {
		slog.Error("failed to compile certificate schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Both parse: Validate checked them
	minter, _ := model.ParseAddress(cfg.Certification.MinterAddress)
	var owner model.Address
	if cfg.Certification.OwnerAddress != "" {
		owner, _ = model.ParseAddress(cfg.Certification.OwnerAddress)
	}

	// Initialize services
	teamService := service.NewTeamService(service.TeamServiceConfig{Ledger: ledger})
	playerService := service.NewPlayerService(service.PlayerServiceConfig{
		Ledger:      ledger,
		TeamService: teamService,
	})
	sessionService := service.NewSessionService(service.SessionServiceConfig{
		Ledger: ledger,
		Dice:   roller,
	})
	certService := service.NewCertificationService(service.CertificationServiceConfig{
		Ledger:   ledger,
		Renderer: renderer,
		Owner:    owner,
		Minters:  []model.Address{minter},
	})
	gmService := service.NewGameMasterService(service.GameMasterServiceConfig{
		Ledger:               ledger,
		TeamService:          teamService,
		CertificationService: certService,
		MinterAddress:        minter,
	})

	// Initialize rate limiter and idempotency replay
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{})
	defer rateLimiter.Stop()
	replayStore := middleware.NewReplayStore(middleware.ReplayConfig{})
	defer replayStore.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Health:        handler.NewHealthHandler(pinger),
		Teams:         handler.NewTeamHandler(teamService, playerService),
		Players:       handler.NewPlayerHandler(playerService),
		GameMasters:   handler.NewGameMasterHandler(gmService),
		Sessions:      handler.NewSessionHandler(sessionService),
		Certification: handler.NewCertificationHandler(certService),
		Events: handler.NewEventsHandler(handler.EventsHandlerConfig{
			EventHub:       eventHub,
			Journal:        eventJournal,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
		Auth:           jwtService,
		RateLimiter:    rateLimiter,
		ReplayStore:    replayStore,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	if snapshot != nil {
		snapshot.Start()
	}

	// No write timeout: event streams stay open.
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("storage", cfg.Storage.Driver),
			slog.Bool("journal", cfg.Journal.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Closing the hub ends open streams so Shutdown does not wait on them.
	eventHub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	if snapshot != nil {
		snapshot.Stop()
	}

	slog.Info("server exited")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
