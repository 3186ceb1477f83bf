package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := fromEnv(envOf(map[string]string{
		"DATABASE_URL":   "postgres://localhost/scoreboard",
		"JWT_SECRET_KEY": "secret",
	}))
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10*time.Second, cfg.CommandTimeout)
	assert.False(t, cfg.StrictBestOfThree)
	assert.Equal(t, 10.0, cfg.ScoreRateLimit)
	assert.Equal(t, "live-tournament", cfg.PresenceChannel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.NATSURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := fromEnv(envOf(map[string]string{
		"STORE_DRIVER":                 "Memory",
		"JWT_SECRET_KEY":               "secret",
		"SERVER_PORT":                  "9090",
		"CORS_ALLOWED_ORIGINS":         "https://board.example.com, http://localhost:5173 ,",
		"NATS_URL":                     "nats://localhost:4222",
		"COMMAND_TIMEOUT":              "3s",
		"SCORING_STRICT_BEST_OF_THREE": "true",
		"SCORE_RATE_LIMIT":             "2.5",
		"PRESENCE_CHANNEL":             "court-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://board.example.com", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, 3*time.Second, cfg.CommandTimeout)
	assert.True(t, cfg.StrictBestOfThree)
	assert.Equal(t, 2.5, cfg.ScoreRateLimit)
	assert.Equal(t, "court-1", cfg.PresenceChannel)
}

func TestFromEnv_Errors(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"DATABASE_URL": "postgres://x", "JWT_SECRET_KEY": "s"}
	}
	tests := map[string]func(env map[string]string){
		"no database url":   func(env map[string]string) { delete(env, "DATABASE_URL") },
		"no jwt secret":     func(env map[string]string) { delete(env, "JWT_SECRET_KEY") },
		"bad driver":        func(env map[string]string) { env["STORE_DRIVER"] = "mongo" },
		"port not number":   func(env map[string]string) { env["SERVER_PORT"] = "http" },
		"port out of range": func(env map[string]string) { env["SERVER_PORT"] = "70000" },
		"bad timeout":       func(env map[string]string) { env["COMMAND_TIMEOUT"] = "soon" },
		"negative timeout":  func(env map[string]string) { env["COMMAND_TIMEOUT"] = "-1s" },
		"bad strict flag":   func(env map[string]string) { env["SCORING_STRICT_BEST_OF_THREE"] = "sometimes" },
		"zero rate limit":   func(env map[string]string) { env["SCORE_RATE_LIMIT"] = "0" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			env := base()
			mutate(env)
			_, err := fromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}
