// Package config holds the service settings. Every field can be set by flag
// or environment variable; .env files are read first.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Config is embedded into every kong command
type Config struct {
	Port    string `env:"PORT" default:"8000" help:"HTTP listen port"`
	GinMode string `env:"GIN_MODE" default:"release" help:"gin mode (debug, release, test)"`

	ZonesPath   string `env:"ZONES_PATH" default:"zones.json" help:"building/zone table (.json or .yaml)"`
	RosterPath  string `env:"ROSTER_PATH" default:"shifts.json" help:"shift roster JSON"`
	WatchRoster bool   `env:"WATCH_ROSTER" help:"cache the roster and reload it when the file changes"`

	HistoryBackend      string `env:"HISTORY_BACKEND" default:"file" enum:"file,memory,db,redis" help:"selection history store"`
	HistoryPath         string `env:"HISTORY_PATH" default:"selection_history.json" help:"history file for the file backend"`
	RedisAddr           string `env:"REDIS_ADDR" default:"localhost:6379" help:"redis address for the redis backend"`
	RedisKey            string `env:"REDIS_KEY" default:"selection_history" help:"redis key holding the history"`
	Timezone            string `env:"TIMEZONE" default:"Local" help:"timezone shift times are written in"`
	SerializeSelections bool   `env:"SERIALIZE_SELECTIONS" help:"serialize history updates inside this process"`

	DatabaseURL string `env:"DATABASE_URL" help:"postgres DSN; sqlite is used when empty"`
	DataPath    string `env:"DATA_PATH" default:"oncall.db" help:"sqlite database file"`

	JWTSecret       string `env:"JWT_SECRET" help:"admin session signing secret"`
	APIMasterSecret string `env:"API_MASTER_SECRET" help:"HMAC secret for API keys"`
	RequireAPIKey   bool   `env:"REQUIRE_API_KEY" help:"require an API key on /api routes"`
	AdminUsername   string `env:"ADMIN_USERNAME" default:"admin"`
	AdminPassword   string `env:"ADMIN_PASSWORD" default:"admin123"`

	LLMProvider  string  `env:"LLM_PROVIDER" default:"openai" enum:"openai,gemini,none" help:"text classifier backend"`
	OpenAIAPIKey string  `env:"OPENAI_API_KEY" name:"openai-api-key"`
	OpenAIModel  string  `env:"OPENAI_MODEL" name:"openai-model" default:"gpt-4o-mini"`
	GeminiAPIKey string  `env:"GEMINI_API_KEY"`
	GeminiModel  string  `env:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	LLMRate      float64 `env:"LLM_RATE" default:"3" help:"classifier requests per second"`
	LLMBurst     int     `env:"LLM_BURST" default:"5"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	APIBaseURL       string `env:"API_BASE_URL" help:"bot talks to this API instead of running in-process"`
	APIKey           string `env:"API_KEY" help:"API key the bot sends to API_BASE_URL"`

	LogLevel  string `env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `env:"LOG_FORMAT" default:"text" enum:"text,json"`
}

// LoadDotEnv loads the first .env found in the working directory or its parents.
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// FromEnv resolves a Config from defaults and the environment only.
func FromEnv() (Config, error) {
	LoadDotEnv()

	var cfg Config
	parser, err := kong.New(&cfg, kong.Name("oncall"))
	if err != nil {
		return cfg, err
	}
	if _, err := parser.Parse([]string{}); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Location parses Timezone. "Local" and "" mean the host timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Logger builds the process logger and makes it the slog default.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if c.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
