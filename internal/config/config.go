package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendMongoDB  = "mongodb"
)

type Config struct {
	StoreBackend string

	HackathonTable string
	SlugIndex      string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	GroqAPIKey  string
	ParamPrefix string
	GroqBaseURL string

	Model             string
	Temperature       *float32
	MaxTokens         int
	MaxQuestionLen    int
	CompletionTimeout time.Duration

	LogLevel slog.Level
}

// Load reads .env files (default ".env") into the process environment
// without overriding variables already set, then parses the environment.
// A missing file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var c Config
	var err error

	c.StoreBackend = strings.ToLower(env("STORE_BACKEND", BackendDynamoDB))
	c.HackathonTable = env("HACKATHON_TABLE", "")
	c.SlugIndex = env("HACKATHON_SLUG_INDEX", "slug-index")

	c.MongoURI = env("MONGODB_URI", "")
	c.MongoDatabase = env("MONGODB_DATABASE", "hackathon_db")
	c.MongoCollection = env("MONGODB_COLLECTION", "hackathons")

	c.GroqAPIKey = env("GROQ_API_KEY", "")
	c.ParamPrefix = strings.TrimRight(env("PARAM_PREFIX", ""), "/")
	c.GroqBaseURL = strings.TrimRight(env("GROQ_BASE_URL", ""), "/")
	c.Model = env("GROQ_MODEL", "")

	if raw := env("GROQ_TEMPERATURE", ""); raw != "" {
		t, perr := strconv.ParseFloat(raw, 32)
		if perr != nil || t < 0 || t > 2 {
			return c, fmt.Errorf("GROQ_TEMPERATURE must be a number between 0 and 2, got %q", raw)
		}
		temp := float32(t)
		c.Temperature = &temp
	}
	if c.MaxTokens, err = envInt("GROQ_MAX_TOKENS", 800); err != nil {
		return c, err
	}
	if c.MaxQuestionLen, err = envInt("MAX_QUESTION_LENGTH", 1000); err != nil {
		return c, err
	}
	if raw := env("COMPLETION_TIMEOUT", ""); raw != "" {
		c.CompletionTimeout, err = time.ParseDuration(raw)
		if err != nil || c.CompletionTimeout < 0 {
			return c, fmt.Errorf("COMPLETION_TIMEOUT must be a duration such as 20s, got %q", raw)
		}
	}
	if err := c.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return c, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch c.StoreBackend {
	case BackendDynamoDB:
		if c.HackathonTable == "" {
			return c, fmt.Errorf("HACKATHON_TABLE is empty")
		}
	case BackendMongoDB:
		if c.MongoURI == "" {
			return c, fmt.Errorf("MONGODB_URI is empty")
		}
	default:
		return c, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendDynamoDB, BackendMongoDB, c.StoreBackend)
	}
	if c.GroqAPIKey == "" && c.ParamPrefix == "" {
		return c, fmt.Errorf("either GROQ_API_KEY or PARAM_PREFIX must be set")
	}
	return c, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
