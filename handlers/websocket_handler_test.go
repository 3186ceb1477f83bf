package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/realtime"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) models.RawScoreboardMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg models.RawScoreboardMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWebSocketHandler_SnapshotThenChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := realtime.NewHub(discardLogger())
	go hub.Run(ctx)

	live := &models.Match{ID: uuid.New(), Status: models.MatchStatusLive, Version: 7}
	h := NewWebSocketHandler(hub, fakeSnapshotter{matches: []*models.Match{live}}, realtime.DefaultRoom, discardLogger())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWs))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scoreboard"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	snapshot := readUntil(t, conn, models.MessageSnapshot)
	assert.Equal(t, realtime.DefaultRoom, snapshot.RoomID)
	var matches []*models.Match
	require.NoError(t, json.Unmarshal(snapshot.Payload, &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, int64(7), matches[0].Version)
	assert.Equal(t, 1, hub.ViewerCount(realtime.DefaultRoom))

	realtime.RoomSink{Hub: hub, Room: realtime.DefaultRoom}.Publish(models.MatchChange{
		EventType: models.ChangeUpdate,
		MatchID:   live.ID,
		Version:   8,
	})
	msg := readUntil(t, conn, models.MessageMatchChange)
	var change models.MatchChange
	require.NoError(t, json.Unmarshal(msg.Payload, &change))
	assert.Equal(t, live.ID, change.MatchID)
	assert.Equal(t, int64(8), change.Version)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ViewerCount(realtime.DefaultRoom) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_ChannelQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := realtime.NewHub(discardLogger())
	go hub.Run(ctx)

	h := NewWebSocketHandler(hub, fakeSnapshotter{}, realtime.DefaultRoom, discardLogger())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWs))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"?channel=court-3", nil)
	require.NoError(t, err)
	defer conn.Close()

	// viewers и snapshot ставятся в очередь из разных горутин, порядок не фиксирован.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	byType := map[string]models.RawScoreboardMessage{}
	for len(byType) < 2 {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg models.RawScoreboardMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		byType[msg.Type] = msg
	}

	snapshot, ok := byType[models.MessageSnapshot]
	require.True(t, ok)
	assert.Equal(t, "court-3", snapshot.RoomID)
	assert.JSONEq(t, `[]`, string(snapshot.Payload))

	viewers, ok := byType[models.MessageViewers]
	require.True(t, ok)
	var vc models.ViewerCount
	require.NoError(t, json.Unmarshal(viewers.Payload, &vc))
	assert.Equal(t, 1, vc.Count)
	assert.Zero(t, hub.ViewerCount(realtime.DefaultRoom))
}
