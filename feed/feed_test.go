package feed

import (
	"testing"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) models.MatchChange {
	t.Helper()
	select {
	case change, ok := <-sub.C:
		require.True(t, ok, "subscription closed unexpectedly")
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return models.MatchChange{}
}

func TestBroker_FanOutPreservesOrder(t *testing.T) {
	broker := NewBroker()
	first, second := broker.Subscribe(), broker.Subscribe()
	defer first.Close()
	defer second.Close()

	id := uuid.New()
	// Публикуем больше, чем кто-либо читает: Publish не должен блокироваться.
	for v := int64(1); v <= 100; v++ {
		broker.Publish(models.MatchChange{EventType: models.ChangeUpdate, MatchID: id, Version: v})
	}

	for _, sub := range []*Subscription{first, second} {
		for v := int64(1); v <= 100; v++ {
			assert.Equal(t, v, receive(t, sub).Version)
		}
	}
}

func TestBroker_CloseDetaches(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	require.Equal(t, 1, broker.Subscribers())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, broker.Subscribers())

	broker.Publish(models.MatchChange{MatchID: uuid.New()})
	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("closed subscription channel was not closed")
	}
}

func TestDecodeChange(t *testing.T) {
	id := uuid.New()
	playerA, playerB := uuid.New(), uuid.New()

	update := `{"event_type":"UPDATE","match_id":"` + id.String() + `","version":7,"new":{` +
		`"id":"` + id.String() + `","player_a_id":"` + playerA.String() + `","player_a2_id":null,` +
		`"player_b_id":"` + playerB.String() + `","player_b2_id":null,"category":"Mens Singles",` +
		`"court":"Court 1","scheduled_at":"2026-03-01T10:00:00+00:00","status":"LIVE",` +
		`"set1_a":21,"set1_b":15,"set2_a":3,"set2_b":1,"set3_a":0,"set3_b":0,"current_set":2,` +
		`"sets_won_a":1,"sets_won_b":0,"winner_side":null,"version":7,` +
		`"created_at":"2026-03-01T09:00:00.123456+00:00","updated_at":"2026-03-01T10:15:42.5+00:00"}}`

	tests := []struct {
		name    string
		payload string
		wantErr bool
		check   func(t *testing.T, c models.MatchChange)
	}{
		{
			name:    "trigger update payload",
			payload: update,
			check: func(t *testing.T, c models.MatchChange) {
				assert.Equal(t, models.ChangeUpdate, c.EventType)
				assert.EqualValues(t, 7, c.Version)
				require.NotNil(t, c.Fields)
				m := c.Fields.ToMatch()
				assert.Equal(t, models.SetScore{A: 3, B: 1}, m.CurrentScore())
				assert.Equal(t, playerB, m.PlayerBID)
				assert.Nil(t, m.WinnerSide)
			},
		},
		{
			name:    "delete without row",
			payload: `{"event_type":"DELETE","match_id":"` + id.String() + `","version":3,"new":null}`,
			check: func(t *testing.T, c models.MatchChange) {
				assert.Equal(t, models.ChangeDelete, c.EventType)
				assert.Nil(t, c.Fields)
			},
		},
		{name: "update without row", payload: `{"event_type":"UPDATE","match_id":"` + id.String() + `","version":3}`, wantErr: true},
		{name: "unknown event", payload: `{"event_type":"TRUNCATE","match_id":"` + id.String() + `"}`, wantErr: true},
		{name: "garbage", payload: `not json`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := DecodeChange([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, change)
		})
	}
}

func TestSubject(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	assert.Equal(t, "scoreboard.matches.7c9e6679-7425-40de-944b-e07fc1f90ae7", Subject(id))
}

type recordingSink struct{ got []models.MatchChange }

func (r *recordingSink) Publish(change models.MatchChange) { r.got = append(r.got, change) }

func TestTee(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	defer sub.Close()
	rec := &recordingSink{}

	change := models.MatchChange{EventType: models.ChangeUpdate, MatchID: uuid.New(), Version: 3}
	Tee(broker, nil, rec).Publish(change)

	assert.Equal(t, change, receive(t, sub))
	assert.Equal(t, []models.MatchChange{change}, rec.got)
}
