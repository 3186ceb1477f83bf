package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-scoreboard/config"
	"github.com/Dosada05/tournament-scoreboard/db"
	"github.com/Dosada05/tournament-scoreboard/feed"
	"github.com/Dosada05/tournament-scoreboard/handlers"
	"github.com/Dosada05/tournament-scoreboard/livecache"
	"github.com/Dosada05/tournament-scoreboard/metrics"
	"github.com/Dosada05/tournament-scoreboard/middleware"
	"github.com/Dosada05/tournament-scoreboard/realtime"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/Dosada05/tournament-scoreboard/routes"
	"github.com/Dosada05/tournament-scoreboard/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

// @title Tournament Scoreboard API
// @version 1.0
// @description Живое табло турнира: матчи, команды судьи, игроки и победители.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

// stores - репозитории выбранного драйвера и источник ленты изменений (nil для памяти).
type stores struct {
	matches repositories.MatchRepository
	players repositories.PlayerRepository
	winners repositories.WinnerRepository
	source  *feed.PostgresSource
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, local feed.Sink, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		mem := repositories.NewMemoryStore(local)
		return &stores{matches: mem.Matches(), players: mem.Players(), winners: mem.Winners(), close: func() {}}, nil
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, dbConn, logger); err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	logger.Info("database connection established")

	return &stores{
		matches: repositories.NewPostgresMatchRepository(dbConn),
		players: repositories.NewPostgresPlayerRepository(dbConn),
		winners: repositories.NewPostgresWinnerRepository(dbConn),
		source:  feed.NewPostgresSource(cfg.DatabaseURL, logger),
		close: func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		},
	}, nil
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
		slog.Bool("nats", cfg.NATSURL != ""),
		slog.Bool("strict_best_of_three", cfg.StrictBestOfThree))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Лента изменений. Без NATS всё идёт через локальный broker. С NATS события памяти
	// уходят в NATS и возвращаются во все экземпляры через NATSSource; Postgres и так
	// рассылает NOTIFY всем, поэтому его события только дублируются в NATS.
	broker := feed.NewBroker()
	var (
		storeSink  feed.Sink = broker
		sourceSink feed.Sink = broker
	)
	if cfg.NATSURL != "" {
		nc, err := feed.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		relay := feed.NewNATSRelay(nc, logger)
		sourceSink = feed.Tee(broker, relay)
		if cfg.StoreDriver == config.StoreDriverMemory {
			storeSink = relay
			natsSource := feed.NewNATSSource(nc, logger)
			g.Go(func() error { return natsSource.Run(gctx, broker) })
		}
		logger.Info("nats change relay enabled")
	}

	st, err := openStores(gctx, cfg, storeSink, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Сервисы
	scoring := services.NewScoringService(st.matches, st.players,
		services.ScoringConfig{StrictBestOfThree: cfg.StrictBestOfThree}, m, logger)
	players := services.NewPlayerService(st.players, st.matches, logger)
	winners := services.NewWinnerService(st.winners, st.players, logger)
	importer := services.NewImportService(st.players, m, logger)
	dashboard := services.NewDashboardService(st.players, st.matches, st.winners)

	// Серверный кэш табло, его держит в актуальном состоянии лента изменений.
	cache := livecache.New()
	cacheSub := broker.Subscribe()
	dispatcher := livecache.NewDispatcher(cache, services.CacheFetcher{Scoring: scoring}, cacheSub.C, logger)
	dispatcher.OnUpdate = func(_ uuid.UUID, outcome livecache.Outcome) {
		m.FeedEvent(outcome.String())
	}
	g.Go(func() error {
		defer cacheSub.Close()
		return dispatcher.Run(gctx)
	})

	if st.source != nil {
		st.source.OnResync = dispatcher.RequestResync
		g.Go(func() error { return st.source.Run(gctx, sourceSink) })
	}

	// WebSocket Hub
	hub := realtime.NewHub(logger)
	hub.OnPresence = m.SetViewers
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	hubSub := broker.Subscribe()
	g.Go(func() error {
		feed.Forward(gctx, hubSub, realtime.RoomSink{Hub: hub, Room: cfg.PresenceChannel})
		return nil
	})
	logger.Info("realtime hub started", slog.String("channel", cfg.PresenceChannel))

	router := routes.InitRoutes(routes.Handlers{
		Matches:    handlers.NewMatchHandler(scoring),
		Scoring:    handlers.NewScoringHandler(scoring),
		Players:    handlers.NewPlayerHandler(players),
		Winners:    handlers.NewWinnerHandler(winners),
		Import:     handlers.NewImportHandler(importer),
		Scoreboard: handlers.NewScoreboardHandler(cache, hub, cfg.PresenceChannel),
		WebSocket:  handlers.NewWebSocketHandler(hub, cache, cfg.PresenceChannel, logger),
		Dashboard:  handlers.NewDashboardHandler(dashboard, hub, cfg.PresenceChannel),
	}, routes.Options{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecretKey),
		ScoreLimiter:   middleware.NewKeyedRateLimiter(rate.Limit(cfg.ScoreRateLimit), int(cfg.ScoreRateLimit)+1),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		CommandTimeout: cfg.CommandTimeout,
		Registry:       registry,
	})
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}
