package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	StorageType      string
	DataSourceName   string
	LocalStoragePath string
	SeedTemplates    bool

	// EngineLicenseKey unlocks the canvas engine. Without it the editor runs
	// in its simplified fallback mode.
	EngineLicenseKey string

	CORSAllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() *Config {
	cfg := &Config{
		StorageType:        getEnv("STORAGE_TYPE", "memory"),
		DataSourceName:     getEnv("DATA_SOURCE_NAME", "marketmaster.db"),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "./data"),
		SeedTemplates:      getEnvBool("SEED_TEMPLATES", true),
		EngineLicenseKey:   os.Getenv("ENGINE_LICENSE_KEY"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),
	}

	if cfg.EngineLicenseKey == "" {
		logrus.Warn("ENGINE_LICENSE_KEY is not set, the canvas editor will run in fallback mode")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"key":   key,
			"value": v,
		}).Warn("Ignoring invalid boolean environment variable")
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
