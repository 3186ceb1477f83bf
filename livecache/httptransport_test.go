package livecache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_SendRoutesCommands(t *testing.T) {
	m := liveMatch(3)
	tests := []struct {
		cmd        Command
		wantMethod string
		wantPath   string
		wantBody   string
	}{
		{StartMatch(m.ID), http.MethodPost, "/matches/" + m.ID.String() + "/start", ""},
		{IncrementScore(m.ID, models.SideA), http.MethodPost, "/matches/" + m.ID.String() + "/score", `{"side":"A"}`},
		{DecrementScore(m.ID, models.SideB), http.MethodPost, "/matches/" + m.ID.String() + "/undo", `{"side":"B"}`},
		{EndSet(m.ID, models.SideB), http.MethodPost, "/matches/" + m.ID.String() + "/end-set", `{"side":"B"}`},
		{CompleteMatch(m.ID, models.SideA), http.MethodPost, "/matches/" + m.ID.String() + "/complete", `{"winner_side":"A"}`},
		{SetStatus(m.ID, models.MatchStatusLive), http.MethodPatch, "/matches/" + m.ID.String() + "/status", `{"status":"LIVE"}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd.Kind), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantMethod, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
				assert.Equal(t, tt.cmd.ID.String(), r.Header.Get("X-Command-ID"))
				if tt.wantBody != "" {
					var got, want map[string]interface{}
					require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
					require.NoError(t, json.Unmarshal([]byte(tt.wantBody), &want))
					assert.Equal(t, want, got)
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"match": m})
			}))
			defer srv.Close()

			transport := NewHTTPTransport(srv.URL+"/", "secret-token", srv.Client())
			got, err := transport.Send(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, m.ID, got.ID)
			assert.Equal(t, m.Version, got.Version)
		})
	}
}

func TestHTTPTransport_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnprocessableEntity, `{"error":"score cannot go below zero"}`, ErrRejected},
		{http.StatusBadRequest, `{"error":"body must not be empty"}`, ErrRejected},
		{http.StatusForbidden, `{"error":"forbidden"}`, ErrRejected},
		{http.StatusConflict, `{"error":"match changed concurrently"}`, ErrConflict},
		{http.StatusNotFound, `{"error":"the requested resource could not be found"}`, ErrNotFound},
		{http.StatusServiceUnavailable, `{"error":"store unavailable"}`, ErrTransport},
		{http.StatusInternalServerError, `oops`, ErrTransport},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			transport := NewHTTPTransport(srv.URL, "", srv.Client())
			_, err := transport.Send(context.Background(), IncrementScore(liveMatch(1).ID, models.SideA))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPTransport_UnreachableServerIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	transport := NewHTTPTransport(url, "", nil)
	_, err := transport.FetchMatches(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestHTTPTransport_FetchMatches(t *testing.T) {
	first, second := liveMatch(1), liveMatch(2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"matches": []*models.Match{first, second}})
	}))
	defer srv.Close()

	matches, err := NewHTTPTransport(srv.URL, "", srv.Client()).FetchMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Priya Sharma", matches[0].PlayerA.Name)
	assert.EqualValues(t, 2, matches[1].Version)
}
