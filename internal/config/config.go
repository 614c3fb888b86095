package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth for the JSON API; empty disables it.
	APIKey string

	// Upload limits
	MaxUploadBytes int64
	MaxFiles       int

	// Conversion
	DefaultVariant  string
	ExtractStrategy string
	PDFValidate     bool

	// Finished conversions
	DownloadTTL     time.Duration
	CleanupInterval time.Duration

	// UI
	PreviewRows int

	// Stats
	StatsWindow time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables take precedence over it.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxFiles:       envInt("MAX_FILES", 20),

		DefaultVariant:  strings.ToLower(envOr("DEFAULT_VARIANT", "clean")),
		ExtractStrategy: strings.ToLower(envOr("EXTRACT_STRATEGY", "auto")),
		PDFValidate:     envBool("PDF_VALIDATE", false),

		DownloadTTL:     envDuration("DOWNLOAD_TTL", 30*time.Minute),
		CleanupInterval: envDuration("CLEANUP_INTERVAL", 5*time.Minute),

		PreviewRows: envInt("PREVIEW_ROWS", 20),

		StatsWindow: envDuration("STATS_WINDOW", time.Hour),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 20
	}
	if cfg.DownloadTTL <= 0 {
		cfg.DownloadTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.PreviewRows < 0 {
		cfg.PreviewRows = 0
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.DefaultVariant {
	case "clean", "extract":
	default:
		return fmt.Errorf("DEFAULT_VARIANT must be clean or extract, got %q", c.DefaultVariant)
	}
	switch c.ExtractStrategy {
	case "auto", "lines", "text":
	default:
		return fmt.Errorf("EXTRACT_STRATEGY must be auto, lines or text, got %q", c.ExtractStrategy)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
