// Package config reads service settings from KINSHIP_* environment variables.
// A .env file in the working directory, if present, is loaded first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	JWTSecret string
	TokenTTL  time.Duration
	// SecureCookies marks the session cookie Secure. Enable behind TLS.
	SecureCookies bool

	// MediaDir is used when no S3 bucket is configured.
	MediaDir   string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Key      string
	S3Secret   string
	// S3PublicURL is the base for object URLs. Defaults to Endpoint/Bucket.
	S3PublicURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Load reads the environment. It loads envFile first when it exists; pass ""
// to skip. Values already set in the environment take precedence.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:      getenv("KINSHIP_PORT", "8080"),
		DBPath:    getenv("KINSHIP_DB_PATH", "kinship.db"),
		LogLevel:  getenv("KINSHIP_LOG_LEVEL", "info"),
		LogFormat: getenv("KINSHIP_LOG_FORMAT", "text"),

		JWTSecret: os.Getenv("KINSHIP_JWT_SECRET"),

		MediaDir:    getenv("KINSHIP_MEDIA_DIR", "media"),
		S3Bucket:    os.Getenv("KINSHIP_S3_BUCKET"),
		S3Region:    getenv("KINSHIP_S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("KINSHIP_S3_ENDPOINT"),
		S3Key:       os.Getenv("KINSHIP_S3_ACCESS_KEY"),
		S3Secret:    os.Getenv("KINSHIP_S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("KINSHIP_S3_PUBLIC_URL"),

		VAPIDPublicKey:  os.Getenv("KINSHIP_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("KINSHIP_VAPID_PRIVATE_KEY"),
		PushSubscriber:  getenv("KINSHIP_PUSH_SUBSCRIBER", "mailto:noreply@kinship.local"),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("KINSHIP_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LoginRateWindow, err = getDuration("KINSHIP_LOGIN_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = getInt("KINSHIP_LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.SecureCookies, err = getBool("KINSHIP_SECURE_COOKIES", false); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("KINSHIP_JWT_SECRET is required")
	}
	if cfg.S3Bucket != "" && (cfg.S3Key == "" || cfg.S3Secret == "") {
		return nil, errors.New("KINSHIP_S3_ACCESS_KEY and KINSHIP_S3_SECRET_KEY are required with KINSHIP_S3_BUCKET")
	}
	return cfg, nil
}

// PushEnabled reports whether both VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
