package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

const maxRowsLimit = 10_000_000

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath        string
	MaxRows         int
	TopStreetsLimit int
	H3Resolution    int
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox reverse geocoding of ranked crash locations.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none are
// given) into the environment without overriding variables already set. A
// missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	maxRows, err := parseInt("MAX_ROWS", 100000, 1, maxRowsLimit)
	if err != nil {
		return nil, err
	}

	topStreets, err := parseInt("TOP_STREETS_LIMIT", 5, 1, 100)
	if err != nil {
		return nil, err
	}

	h3Res, err := parseInt("H3_RESOLUTION", 9, 0, 15)
	if err != nil {
		return nil, err
	}

	logLevel := strings.ToLower(strings.TrimSpace(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")))
	switch logLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: want debug, info, warn or error", logLevel)
	}

	logFormat := sharedcfg.EnvOrDefault("LOG_FORMAT", "json")
	switch logFormat {
	case "json", "text", "console":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json, text or console", logFormat)
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxCacheSize, err := parseInt("MAPBOX_CACHE_SIZE", 1000, 1, 1_000_000)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		DataPath:        sharedcfg.EnvOrDefault("DATA_PATH", "data.csv"),
		MaxRows:         maxRows,
		TopStreetsLimit: topStreets,
		H3Resolution:    h3Res,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// parseInt reads an integer variable bounded by [lo, hi].
func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: %d outside %d-%d", key, n, lo, hi)
	}
	return n, nil
}
