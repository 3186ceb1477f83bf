package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-scoreboard/livecache"
	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/Dosada05/tournament-scoreboard/services"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testAPI struct {
	store   *repositories.MemoryStore
	players services.PlayerService
	router  chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := repositories.NewMemoryStore(nil)
	logger := discardLogger()
	scoring := services.NewScoringService(store.Matches(), store.Players(), services.ScoringConfig{}, nil, logger)
	players := services.NewPlayerService(store.Players(), store.Matches(), logger)

	mh := NewMatchHandler(scoring)
	sh := NewScoringHandler(scoring)
	ph := NewPlayerHandler(players)
	ih := NewImportHandler(services.NewImportService(store.Players(), nil, logger))

	r := chi.NewRouter()
	r.Get("/matches", mh.ListMatches)
	r.Post("/matches", mh.CreateMatch)
	r.Get("/matches/{matchID}", mh.GetMatch)
	r.Delete("/matches/{matchID}", mh.DeleteMatch)
	r.Post("/matches/{matchID}/start", sh.StartMatch)
	r.Post("/matches/{matchID}/score", sh.IncrementScore)
	r.Post("/matches/{matchID}/undo", sh.DecrementScore)
	r.Post("/matches/{matchID}/end-set", sh.EndSet)
	r.Post("/matches/{matchID}/complete", sh.CompleteMatch)
	r.Patch("/matches/{matchID}/status", sh.SetStatus)
	r.Post("/players", ph.RegisterPlayer)
	r.Get("/players", ph.ListPlayers)
	r.Post("/players/import", ih.ImportPlayers)
	r.Post("/players/{playerID}/approve", ph.ApprovePlayer)
	r.Delete("/players/{playerID}", ph.DeletePlayer)

	return &testAPI{store: store, players: players, router: r}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func fakeRegistration() services.PlayerInput {
	return services.PlayerInput{
		Name:           gofakeit.Name(),
		EmployeeNumber: gofakeit.Numerify("EMP-#####"),
		Location:       gofakeit.City(),
		Designation:    gofakeit.JobTitle(),
		Age:            gofakeit.Number(21, 60),
		Gender:         models.GenderMale,
		Categories:     []models.Category{models.CategoryMensSingles},
		Phone:          gofakeit.Numerify("98########"),
	}
}

func (a *testAPI) approvedPlayer(t *testing.T) *models.Player {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/players", fakeRegistration())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var env struct {
		Player *models.Player `json:"player"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, models.PlayerStatusPending, env.Player.Status)

	rec = a.do(t, http.MethodPost, "/players/"+env.Player.ID.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return env.Player
}

func decodeMatch(t *testing.T, rec *httptest.ResponseRecorder) *models.Match {
	t.Helper()
	var env struct {
		Match *models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Match)
	return env.Match
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrPlayerNameRequired, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", services.ErrValidation, models.ErrMatchNotLive), http.StatusUnprocessableEntity},
		{services.ErrMatchChanged, http.StatusConflict},
		{services.ErrEmployeeNumberTaken, http.StatusConflict},
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("list matches: %w", services.ErrTransport), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestReadJSON_RejectsMalformedBodies(t *testing.T) {
	api := newTestAPI(t)
	tests := map[string]string{
		"empty":         "",
		"unknown field": `{"name":"A","nickname":"x"}`,
		"two values":    `{"name":"A"}{"name":"B"}`,
		"syntax":        `{"name":`,
		"wrong type":    `{"age":"old"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/players", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestMatchHandlers_ScoringFlow(t *testing.T) {
	api := newTestAPI(t)
	a := api.approvedPlayer(t)
	b := api.approvedPlayer(t)

	rec := api.do(t, http.MethodPost, "/matches", services.CreateMatchInput{
		PlayerAID: a.ID,
		PlayerBID: b.ID,
		Category:  models.CategoryMensSingles,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeMatch(t, rec)
	assert.Equal(t, models.MatchStatusUpcoming, created.Status)
	require.NotNil(t, created.PlayerA)
	assert.Equal(t, a.Name, created.PlayerA.Name)

	base := "/matches/" + created.ID.String()

	rec = api.do(t, http.MethodPost, base+"/score", sideInput{Side: models.SideA})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "scoring before start")

	rec = api.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.MatchStatusLive, decodeMatch(t, rec).Status)

	for i := 0; i < 3; i++ {
		rec = api.do(t, http.MethodPost, base+"/score", sideInput{Side: models.SideA})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPost, base+"/undo", sideInput{Side: models.SideA})
	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeMatch(t, rec)
	assert.Equal(t, 2, m.CurrentScore().A)

	rec = api.do(t, http.MethodPost, base+"/undo", sideInput{Side: models.SideB})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "undo below zero")

	rec = api.do(t, http.MethodPost, base+"/score", sideInput{Side: "C"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, base+"/end-set", sideInput{Side: models.SideA})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m = decodeMatch(t, rec)
	assert.Equal(t, 1, m.SetsWonA)
	assert.Equal(t, 2, m.CurrentSet)

	rec = api.do(t, http.MethodPost, base+"/complete", completeInput{WinnerSide: models.SideA})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m = decodeMatch(t, rec)
	assert.Equal(t, models.MatchStatusCompleted, m.Status)
	require.NotNil(t, m.WinnerSide)
	assert.Equal(t, models.SideA, *m.WinnerSide)

	rec = api.do(t, http.MethodPost, base+"/complete", completeInput{WinnerSide: models.SideB})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "completed match is final")

	rec = api.do(t, http.MethodGet, "/matches?status=COMPLETED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Matches []*models.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Matches, 1)
	assert.Equal(t, m.Version, list.Matches[0].Version)

	rec = api.do(t, http.MethodGet, "/matches?status=PAUSED", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodDelete, "/players/"+a.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMatchHandlers_NotFoundAndBadIDs(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/matches/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/matches/not-a-uuid/start", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPatch, "/matches/"+uuid.NewString()+"/status", statusInput{Status: models.MatchStatusLive})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matches":[]}`, rec.Body.String())
}

func TestScoringHandler_CommandIDHeader(t *testing.T) {
	api := newTestAPI(t)
	a := api.approvedPlayer(t)
	b := api.approvedPlayer(t)
	rec := api.do(t, http.MethodPost, "/matches", services.CreateMatchInput{PlayerAID: a.ID, PlayerBID: b.ID, Category: models.CategoryMensSingles})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMatch(t, rec)
	path := "/matches/" + created.ID.String()

	send := func(target, commandID, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if commandID != "" {
			req.Header.Set(CommandIDHeader, commandID)
		}
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec
	}

	start := uuid.New()
	rec = send(path+"/start", start.String(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{start}, decodeMatch(t, rec).RecentCommands)

	rec = send(path+"/score", "not-a-uuid", `{"side":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), CommandIDHeader)

	got, err := api.store.Matches().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentScore().A, "rejected header leaves the match untouched")
}

// HTTPTransport и handlers должны говорить на одном языке.
func TestHTTPTransport_AgainstHandlers(t *testing.T) {
	api := newTestAPI(t)
	a := api.approvedPlayer(t)
	b := api.approvedPlayer(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	rec := api.do(t, http.MethodPost, "/matches", services.CreateMatchInput{PlayerAID: a.ID, PlayerBID: b.ID, Category: models.CategoryMensSingles})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMatch(t, rec)

	transport := livecache.NewHTTPTransport(srv.URL, "", srv.Client())
	ctx := context.Background()

	m, err := transport.Send(ctx, livecache.Command{ID: uuid.New(), MatchID: created.ID, Kind: livecache.KindSetStatus, Status: models.MatchStatusLive})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusLive, m.Status)

	point := livecache.Command{ID: uuid.New(), MatchID: created.ID, Kind: livecache.KindIncrement, Side: models.SideB}
	m, err = transport.Send(ctx, point)
	require.NoError(t, err)
	assert.Equal(t, 1, m.CurrentScore().B)
	assert.Greater(t, m.Version, created.Version)
	assert.True(t, m.HasCommand(point.ID), "command id comes back with the match")

	_, err = transport.Send(ctx, livecache.Command{ID: uuid.New(), MatchID: created.ID, Kind: livecache.KindDecrement, Side: models.SideA})
	assert.ErrorIs(t, err, livecache.ErrRejected)

	_, err = transport.Send(ctx, livecache.Command{ID: uuid.New(), MatchID: uuid.New(), Kind: livecache.KindStart})
	assert.ErrorIs(t, err, livecache.ErrNotFound)

	all, err := transport.FetchMatches(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	fetched, err := transport.FetchMatch(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].Version, fetched.Version)
}

func TestImportHandler(t *testing.T) {
	api := newTestAPI(t)
	csv := "name,employee_number,phone,category\n" +
		"Meera Shah,IMP-1,9876543210,womens singles\n" +
		"Ravi Kumar,IMP-2,9876543211,mens doubles\n"

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "players.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/players/import?auto_approve=true", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var env struct {
			Result services.ImportResult `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, 2, env.Result.Inserted)

		approved, err := api.players.List(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, approved, 2)
		assert.Equal(t, models.PlayerStatusApproved, approved[0].Status)
	})

	t.Run("raw body needs format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/players/import", strings.NewReader(csv))
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "players.pdf")
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/players/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("bad auto_approve", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/players/import?format=csv&auto_approve=maybe", strings.NewReader(csv))
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type fakeSnapshotter struct{ matches []*models.Match }

func (f fakeSnapshotter) Snapshot() []*models.Match { return f.matches }

type fakeViewers map[string]int

func (f fakeViewers) ViewerCount(room string) int { return f[room] }

func TestScoreboardHandler(t *testing.T) {
	live := &models.Match{ID: uuid.New(), Status: models.MatchStatusLive, Version: 4}
	h := NewScoreboardHandler(fakeSnapshotter{matches: []*models.Match{live}}, fakeViewers{"live-tournament": 3, "court-2": 1}, "live-tournament")

	rec := httptest.NewRecorder()
	h.GetScoreboard(rec, httptest.NewRequest(http.MethodGet, "/scoreboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Matches []*models.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Matches, 1)
	assert.Equal(t, live.ID, env.Matches[0].ID)

	rec = httptest.NewRecorder()
	h.GetViewers(rec, httptest.NewRequest(http.MethodGet, "/scoreboard/viewers", nil))
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.GetViewers(rec, httptest.NewRequest(http.MethodGet, "/scoreboard/viewers?channel=court-2", nil))
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	empty := NewScoreboardHandler(fakeSnapshotter{}, fakeViewers{}, "live-tournament")
	rec = httptest.NewRecorder()
	empty.GetScoreboard(rec, httptest.NewRequest(http.MethodGet, "/scoreboard", nil))
	assert.JSONEq(t, `{"matches":[]}`, rec.Body.String())
}
