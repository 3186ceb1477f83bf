package routes

import (
	"encoding/json"
	"net/http"
	"time"

	_ "github.com/Dosada05/tournament-scoreboard/docs" // swagger spec
	"github.com/Dosada05/tournament-scoreboard/handlers"
	"github.com/Dosada05/tournament-scoreboard/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Matches    *handlers.MatchHandler
	Scoring    *handlers.ScoringHandler
	Players    *handlers.PlayerHandler
	Winners    *handlers.WinnerHandler
	Import     *handlers.ImportHandler
	Scoreboard *handlers.ScoreboardHandler
	WebSocket  *handlers.WebSocketHandler
	Dashboard  *handlers.DashboardHandler
}

type Options struct {
	Auth           *middleware.Authenticator
	ScoreLimiter   *middleware.KeyedRateLimiter
	AllowedOrigins []string
	// CommandTimeout ограничивает запросы команд судьи; 0 - без ограничения.
	CommandTimeout time.Duration
	// Registry nil - /metrics не публикуется.
	Registry *prometheus.Registry
}

func InitRoutes(h Handlers, opts Options) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", handlers.CommandIDHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	if opts.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{Registry: opts.Registry}))
	}

	// Публичное табло
	router.Get("/scoreboard", h.Scoreboard.GetScoreboard)
	router.Get("/scoreboard/viewers", h.Scoreboard.GetViewers)
	router.Get("/ws/scoreboard", h.WebSocket.ServeWs)

	official := func(r chi.Router) {
		r.Use(opts.Auth.Authenticate)
		r.Use(middleware.RequireOfficial)
	}

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", h.Matches.ListMatches)
		r.Get("/{matchID}", h.Matches.GetMatch)

		r.Group(func(r chi.Router) {
			official(r)
			r.Post("/", h.Matches.CreateMatch)
			r.Delete("/{matchID}", h.Matches.DeleteMatch)

			// Команды судьи
			r.Group(func(r chi.Router) {
				if opts.ScoreLimiter != nil {
					r.Use(middleware.RateLimit(opts.ScoreLimiter))
				}
				if opts.CommandTimeout > 0 {
					r.Use(chiMiddleware.Timeout(opts.CommandTimeout))
				}
				r.Post("/{matchID}/start", h.Scoring.StartMatch)
				r.Post("/{matchID}/score", h.Scoring.IncrementScore)
				r.Post("/{matchID}/undo", h.Scoring.DecrementScore)
				r.Post("/{matchID}/end-set", h.Scoring.EndSet)
				r.Post("/{matchID}/complete", h.Scoring.CompleteMatch)
				r.Patch("/{matchID}/status", h.Scoring.SetStatus)
			})
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Post("/", h.Players.RegisterPlayer)

		r.Group(func(r chi.Router) {
			official(r)
			r.Get("/", h.Players.ListPlayers)
			r.Post("/import", h.Import.ImportPlayers)
			r.Get("/{playerID}", h.Players.GetPlayer)
			r.Put("/{playerID}", h.Players.UpdatePlayer)
			r.Delete("/{playerID}", h.Players.DeletePlayer)
			r.Post("/{playerID}/approve", h.Players.ApprovePlayer)
			r.Post("/{playerID}/reject", h.Players.RejectPlayer)
		})
	})

	router.Group(func(r chi.Router) {
		official(r)
		r.Get("/dashboard/stats", h.Dashboard.Stats)
	})

	router.Route("/winners", func(r chi.Router) {
		r.Get("/", h.Winners.ListWinners)

		r.Group(func(r chi.Router) {
			official(r)
			r.Post("/", h.Winners.DeclareWinner)
			r.Delete("/{winnerID}", h.Winners.RemoveWinner)
		})
	})

	return router
}
