// utils/env.go
package utils

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is everything the service reads from the environment.
type Config struct {
	DatabaseURL    string
	ListenAddr     string
	AllowedOrigins []string
	GatewayToken   string
	LogMode        string

	SyncServiceURL  string
	ProfileSyncPath string

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string
	UploadDir         string

	ChaosScheduleDays int
}

// LoadDotEnv loads .env if present. A missing file is reported, not fatal.
func LoadDotEnv() error {
	return godotenv.Load()
}

// LoadConfig reads the process environment, applying defaults.
func LoadConfig() Config {
	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		ListenAddr:        getenv("LISTEN_ADDR", ":5200"),
		GatewayToken:      os.Getenv("GATEWAY_SERVICE_TOKEN"),
		LogMode:           getenv("LOG_MODE", "dev"),
		SyncServiceURL:    os.Getenv("SYNC_SERVICE_URL"),
		ProfileSyncPath:   getenv("PROFILE_SYNC_PATH", "/api/v1/public/profiles"),
		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:        os.Getenv("CDN_BASE_URL"),
		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		ChaosScheduleDays: getenvInt("CHAOS_SCHEDULE_DAYS", 14),
	}

	// Split the comma-separated origin list and trim spaces from each origin
	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable not set"))
	}
	if c.GatewayToken == "" {
		errs = append(errs, errors.New("GATEWAY_SERVICE_TOKEN environment variable not set"))
	}
	if c.ChaosScheduleDays < 1 {
		errs = append(errs, errors.New("CHAOS_SCHEDULE_DAYS must be at least 1"))
	}
	return errors.Join(errs...)
}

// R2Enabled reports whether object storage credentials are present.
func (c Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
