package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings.
type Config struct {
	TemplatesDir       string
	WorkDir            string
	DBPath             string
	HTTPPort           string
	PermissionsFile    string
	SlackBotToken      string
	SlackSigningSecret string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	SofficePath        string
	ConvertConcurrency int
	ConvertTimeoutSec  int
	EnableWatcher      bool
	HistoryTTLMin      int
	SweepIntervalMin   int
	TempFileTTLMin     int
}

// Load reads configuration from environment and optional .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		TemplatesDir:       getenv("TEMPLATES_DIR", "./data/templates"),
		WorkDir:            getenv("WORK_DIR", "./work"),
		DBPath:             getenv("DB_PATH", "./proposals.db"),
		HTTPPort:           getenv("PORT", "8080"),
		PermissionsFile:    getenv("PERMISSIONS_FILE", "./data/permissions.yaml"),
		SlackBotToken:      getenv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getenv("SLACK_SIGNING_SECRET", ""),
		OpenAIAPIKey:       getenv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getenv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:        getenv("OPENAI_MODEL", "gpt-4.1"),
		SofficePath:        getenv("SOFFICE_PATH", ""),
		ConvertConcurrency: clampInt(getenvInt("PDF_CONVERT_CONCURRENCY", 2), 1, 16),
		ConvertTimeoutSec:  clampInt(getenvInt("PDF_CONVERT_TIMEOUT_SEC", 60), 5, 600),
		EnableWatcher:      getenvBool("ENABLE_WATCHER", true),
		HistoryTTLMin:      clampInt(getenvInt("HISTORY_TTL_MIN", 60), 1, 1440),
		SweepIntervalMin:   clampInt(getenvInt("SWEEP_INTERVAL_MIN", 15), 1, 1440),
		TempFileTTLMin:     clampInt(getenvInt("TEMP_FILE_TTL_MIN", 120), 5, 10080),
	}

	log.Printf("config: templates=%s work=%s db=%s port=%s", cfg.TemplatesDir, cfg.WorkDir, cfg.DBPath, cfg.HTTPPort)
	return cfg
}

// ConvertTimeout returns the external renderer timeout as a duration.
func (c Config) ConvertTimeout() time.Duration {
	return time.Duration(c.ConvertTimeoutSec) * time.Second
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Now returns utc time helper for deterministic timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
