package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	StoreDriver  string
	JWTSecretKey string
	ServerPort   int

	CORSAllowedOrigins []string
	// NATSURL пустой - лента изменений только внутри процесса.
	NATSURL string

	CommandTimeout    time.Duration
	StrictBestOfThree bool
	// ScoreRateLimit - команд в секунду на одного судью.
	ScoreRateLimit  float64
	PresenceChannel string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	driver := strings.ToLower(strings.TrimSpace(getenv("STORE_DRIVER")))
	if driver == "" {
		driver = StoreDriverPostgres
	}
	if driver != StoreDriverPostgres && driver != StoreDriverMemory {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, driver)
	}

	dbURL := getenv("DATABASE_URL")
	if dbURL == "" && driver == StoreDriverPostgres {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	timeout := 10 * time.Second
	if raw := getenv("COMMAND_TIMEOUT"); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid COMMAND_TIMEOUT environment variable: %w", err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("COMMAND_TIMEOUT must be positive, got %s", timeout)
		}
	}

	strict := false
	if raw := getenv("SCORING_STRICT_BEST_OF_THREE"); raw != "" {
		strict, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SCORING_STRICT_BEST_OF_THREE environment variable: %w", err)
		}
	}

	rateLimit := 10.0
	if raw := getenv("SCORE_RATE_LIMIT"); raw != "" {
		rateLimit, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SCORE_RATE_LIMIT environment variable: %w", err)
		}
		if rateLimit <= 0 {
			return nil, fmt.Errorf("SCORE_RATE_LIMIT must be positive, got %v", rateLimit)
		}
	}

	channel := getenv("PRESENCE_CHANNEL")
	if channel == "" {
		channel = "live-tournament"
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		StoreDriver:        driver,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS")),
		NATSURL:            strings.TrimSpace(getenv("NATS_URL")),
		CommandTimeout:     timeout,
		StrictBestOfThree:  strict,
		ScoreRateLimit:     rateLimit,
		PresenceChannel:    channel,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
