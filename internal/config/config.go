// Package config provides configuration loading and validation for the API
// server and the weight trainer. It uses koanf to merge environment
// variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the recommendation service.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (ranking audit log)
	RedisURL string `koanf:"redis_url"`

	// CalibrationPath points to an optional JSON file overriding the
	// default scoring weights until the first training run.
	CalibrationPath string `koanf:"calibration_path"`

	// Ranking settings
	HistoryLimit   int `koanf:"history_limit"`   // interactions loaded per ranking pass
	DefaultTopN    int `koanf:"default_top_n"`   // result count when the client asks for none
	MaxTopN        int `koanf:"max_top_n"`       // hard cap on requested result counts
	CandidateLimit int `koanf:"candidate_limit"` // max candidates scored per pass

	// Weight training
	TrainingIntervalHours   int `koanf:"training_interval_hours"`
	TrainingWindowDays      int `koanf:"training_window_days"`
	MinTrainingInteractions int `koanf:"min_training_interactions"`

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporter     string  `koanf:"tracing_exporter"` // otlp-grpc or otlp-http
	TracingOTLPEndpoint string  `koanf:"tracing_otlp_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingRedisURL    = errors.New("REDIS_URL is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidTopN        = errors.New("DEFAULT_TOP_N must not exceed MAX_TOP_N")
)

// Default values for non-secret configuration.
const (
	DefaultPort                    = 8080
	DefaultEnv                     = "development"
	DefaultHistoryLimit            = 50
	DefaultTopN                    = 10
	DefaultMaxTopN                 = 50
	DefaultCandidateLimit          = 500
	DefaultTrainingIntervalHours   = 24
	DefaultTrainingWindowDays      = 30
	DefaultMinTrainingInteractions = 20
	DefaultTracingExporter         = "otlp-grpc"
	DefaultTracingSamplingRate     = 0.1
)

// TrainingInterval returns the training interval as a duration.
func (c *Config) TrainingInterval() time.Duration {
	return time.Duration(c.TrainingIntervalHours) * time.Hour
}

// TrainingWindow returns the training window as a duration.
func (c *Config) TrainingWindow() time.Duration {
	return time.Duration(c.TrainingWindowDays) * 24 * time.Hour
}

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefaultMulti([]string{"CULTURANK_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	historyLimit, err := getEnvIntOrDefault("HISTORY_LIMIT", k.Int("history_limit"), DefaultHistoryLimit)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	defaultTopN, err := getEnvIntOrDefault("DEFAULT_TOP_N", k.Int("default_top_n"), DefaultTopN)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxTopN, err := getEnvIntOrDefault("MAX_TOP_N", k.Int("max_top_n"), DefaultMaxTopN)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	candidateLimit, err := getEnvIntOrDefault("CANDIDATE_LIMIT", k.Int("candidate_limit"), DefaultCandidateLimit)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	trainingInterval, err := getEnvIntOrDefault("TRAINING_INTERVAL_HOURS", k.Int("training_interval_hours"), DefaultTrainingIntervalHours)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	trainingWindow, err := getEnvIntOrDefault("TRAINING_WINDOW_DAYS", k.Int("training_window_days"), DefaultTrainingWindowDays)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	minInteractions, err := getEnvIntOrDefault("MIN_TRAINING_INTERACTIONS", k.Int("min_training_interactions"), DefaultMinTrainingInteractions)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			tracingEnabled = true
		case "false", "0", "no", "off":
			tracingEnabled = false
		}
	}

	samplingRate, err := getEnvFloatOrDefault("TRACING_SAMPLING_RATE", k.Float64("tracing_sampling_rate"), DefaultTracingSamplingRate)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	cfg := &Config{
		Port:                    port,
		Env:                     getEnvOrDefaultMulti([]string{"CULTURANK_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:             getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:                getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CalibrationPath:         getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		HistoryLimit:            historyLimit,
		DefaultTopN:             defaultTopN,
		MaxTopN:                 maxTopN,
		CandidateLimit:          candidateLimit,
		TrainingIntervalHours:   trainingInterval,
		TrainingWindowDays:      trainingWindow,
		MinTrainingInteractions: minInteractions,
		TracingEnabled:          tracingEnabled,
		TracingExporter:         getEnvOrDefault("TRACING_EXPORTER", k.String("tracing_exporter"), DefaultTracingExporter),
		TracingOTLPEndpoint:     getEnvOrKoanf("TRACING_OTLP_ENDPOINT", k, "tracing_otlp_endpoint"),
		TracingSamplingRate:     samplingRate,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: A value of 0 from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present and
// coherent. Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.RedisURL == "" {
		errs = append(errs, ErrMissingRedisURL)
	}
	if c.DefaultTopN > c.MaxTopN {
		errs = append(errs, ErrInvalidTopN)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Credentials are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                      fmt.Sprintf("%d", c.Port),
		"env":                       c.Env,
		"database_url":              maskDatabaseURL(c.DatabaseURL),
		"redis_url":                 maskDatabaseURL(c.RedisURL),
		"calibration_path":          c.CalibrationPath,
		"history_limit":             fmt.Sprintf("%d", c.HistoryLimit),
		"default_top_n":             fmt.Sprintf("%d", c.DefaultTopN),
		"max_top_n":                 fmt.Sprintf("%d", c.MaxTopN),
		"candidate_limit":           fmt.Sprintf("%d", c.CandidateLimit),
		"training_interval_hours":   fmt.Sprintf("%d", c.TrainingIntervalHours),
		"training_window_days":      fmt.Sprintf("%d", c.TrainingWindowDays),
		"min_training_interactions": fmt.Sprintf("%d", c.MinTrainingInteractions),
		"tracing_enabled":           fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter":          c.TracingExporter,
		"tracing_otlp_endpoint":     c.TracingOTLPEndpoint,
		"tracing_sampling_rate":     fmt.Sprintf("%g", c.TracingSamplingRate),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
