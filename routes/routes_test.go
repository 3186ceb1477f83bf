package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/tournament-scoreboard/handlers"
	"github.com/Dosada05/tournament-scoreboard/livecache"
	"github.com/Dosada05/tournament-scoreboard/metrics"
	"github.com/Dosada05/tournament-scoreboard/middleware"
	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/realtime"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/Dosada05/tournament-scoreboard/services"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const secret = "routes-secret"

type fixture struct {
	router http.Handler
	store  *repositories.MemoryStore
}

func newFixture(t *testing.T, limiter *middleware.KeyedRateLimiter) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore(nil)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	scoring := services.NewScoringService(store.Matches(), store.Players(), services.ScoringConfig{}, m, logger)
	players := services.NewPlayerService(store.Players(), store.Matches(), logger)
	winners := services.NewWinnerService(store.Winners(), store.Players(), logger)
	hub := realtime.NewHub(logger)
	cache := livecache.New()

	router := InitRoutes(Handlers{
		Matches:    handlers.NewMatchHandler(scoring),
		Scoring:    handlers.NewScoringHandler(scoring),
		Players:    handlers.NewPlayerHandler(players),
		Winners:    handlers.NewWinnerHandler(winners),
		Import:     handlers.NewImportHandler(services.NewImportService(store.Players(), m, logger)),
		Scoreboard: handlers.NewScoreboardHandler(cache, hub, realtime.DefaultRoom),
		WebSocket:  handlers.NewWebSocketHandler(hub, cache, realtime.DefaultRoom, logger),
		Dashboard:  handlers.NewDashboardHandler(services.NewDashboardService(store.Players(), store.Matches(), store.Winners()), hub, realtime.DefaultRoom),
	}, Options{
		Auth:           middleware.NewAuthenticator(secret),
		ScoreLimiter:   limiter,
		AllowedOrigins: []string{"https://board.example.com"},
		Registry:       reg,
	})
	return &fixture{router: router, store: store}
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ref-" + role,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) liveMatch(t *testing.T) *models.Match {
	t.Helper()
	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		p := &models.Player{
			Name:           "Player " + uuid.NewString()[:6],
			EmployeeNumber: uuid.NewString(),
			Location:       "Pune",
			Designation:    "Engineer",
			Age:            30,
			Gender:         models.GenderMale,
			Categories:     []models.Category{models.CategoryMensSingles},
			Phone:          "9876543210",
			Status:         models.PlayerStatusApproved,
		}
		require.NoError(t, f.store.Players().Create(ctx, p))
		ids = append(ids, p.ID)
	}
	m := &models.Match{
		PlayerAID: ids[0],
		PlayerBID: ids[1],
		Category:  models.CategoryMensSingles,
		Court:     "Court 1",
		Status:    models.MatchStatusUpcoming,
	}
	require.NoError(t, f.store.Matches().Create(ctx, m))
	started, err := f.store.Matches().Start(ctx, m.ID)
	require.NoError(t, err)
	return started
}

func TestRoutes_PublicAndSystem(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	for _, path := range []string{"/matches", "/winners", "/scoreboard", "/scoreboard/viewers"} {
		rec = f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = f.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tournament Scoreboard API")

	req := httptest.NewRequest(http.MethodOptions, "/matches", nil)
	req.Header.Set("Origin", "https://board.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "https://board.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_AdminRequiresOfficialRole(t *testing.T) {
	f := newFixture(t, nil)
	m := f.liveMatch(t)
	path := "/matches/" + m.ID.String() + "/score"
	body := map[string]string{"side": "A"}

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, path, "", body).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, path, token(t, "viewer"), body).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/players", "", nil).Code)

	rec := f.do(t, http.MethodPost, path, token(t, "moderator"), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/players?status=APPROVED", token(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Players []*models.Player `json:"players"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, env.Players, 2)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/dashboard/stats", "", nil).Code)
	rec = f.do(t, http.MethodGet, "/dashboard/stats", token(t, "admin"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, models.DashboardStats{PlayersTotal: 2, PlayersApproved: 2, MatchesTotal: 1, MatchesLive: 1}, stats)

	rec = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scoreboard_scoring_commands_total{command="increment",outcome="ok"} 1`)
}

func TestRoutes_ScoringIsRateLimited(t *testing.T) {
	f := newFixture(t, middleware.NewKeyedRateLimiter(rate.Every(time.Hour), 2))
	m := f.liveMatch(t)
	path := "/matches/" + m.ID.String() + "/score"
	body := map[string]string{"side": "B"}
	admin := token(t, "admin")

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, admin, body).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, path, admin, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, path, admin, body).Code)

	// Чтение без лимита.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/matches/"+m.ID.String(), "", nil).Code)
	}
}
