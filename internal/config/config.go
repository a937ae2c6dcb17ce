package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	SchemaPath            string
	OrganisationsPath     string
	OrganisationPatchPath string
	EnumPatchPath         string
	DBPath                string
	OutputDir             string
	PersistRuns           bool

	RegisterURL          string
	RegisterTimeoutMs    int
	RegisterRateLimitRPS int
	RegisterMaxAge       time.Duration

	LogLevel        string
	LogFormat       string
	MetricsTextfile string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SchemaPath:            getEnv("HARMONISE_SCHEMA", filepath.Join(cwd, "schema", "schema.json")),
		OrganisationsPath:     getEnv("HARMONISE_ORGANISATIONS", filepath.Join(cwd, "var", "cache", "organisation.csv")),
		OrganisationPatchPath: getEnv("HARMONISE_ORGANISATION_PATCH", filepath.Join(cwd, "patch", "organisation.csv")),
		EnumPatchPath:         getEnv("HARMONISE_ENUM_PATCH", filepath.Join(cwd, "patch", "enum.csv")),
		DBPath:                getEnv("HARMONISE_DB_PATH", filepath.Join(cwd, "data", "harmonise.db")),
		OutputDir:             getEnv("HARMONISE_OUTPUT_DIR", filepath.Join(cwd, "var", "harmonised")),
		PersistRuns:           getEnvBool("HARMONISE_PERSIST_RUNS", true),

		RegisterURL:          getEnv("ORGANISATION_REGISTER_URL", "https://raw.githubusercontent.com/digital-land/organisation-dataset/main/collection/organisation.csv"),
		RegisterTimeoutMs:    getEnvInt("REGISTER_TIMEOUT_MS", 30000),
		RegisterRateLimitRPS: getEnvInt("REGISTER_RATE_LIMIT_RPS", 2),
		RegisterMaxAge:       time.Duration(getEnvInt("REGISTER_MAX_AGE_HOURS", 24)) * time.Hour,

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
