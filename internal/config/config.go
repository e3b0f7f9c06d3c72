// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Google IDトークン検証の公開鍵エンドポイントの既定値。
const defaultGoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Session token
	JWTSecret string

	// Google Sign-In
	GoogleWebClientID     string
	GoogleAndroidClientID string
	GoogleIOSClientID     string
	GoogleCertsURL        string
	GoogleCertsCacheTTL   time.Duration
	GoogleCertsTimeout    time.Duration

	// Password
	BcryptCost int

	// Server
	ServerPort      string
	ShutdownTimeout time.Duration

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// GoogleClientIDs は設定済みのGoogleクライアントIDを返す。
// 未設定の値は含めない。
func (c *Config) GoogleClientIDs() []string {
	var ids []string
	for _, id := range []string{c.GoogleWebClientID, c.GoogleAndroidClientID, c.GoogleIOSClientID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)

	cfg.GoogleWebClientID = strings.TrimSpace(os.Getenv("GOOGLE_WEB_CLIENT_ID"))
	cfg.GoogleAndroidClientID = strings.TrimSpace(os.Getenv("GOOGLE_ANDROID_CLIENT_ID"))
	cfg.GoogleIOSClientID = strings.TrimSpace(os.Getenv("GOOGLE_IOS_CLIENT_ID"))
	cfg.GoogleCertsURL = getEnvString("GOOGLE_CERTS_URL", defaultGoogleCertsURL)
	cfg.GoogleCertsCacheTTL = getEnvDuration("GOOGLE_CERTS_CACHE_TTL", time.Hour)
	cfg.GoogleCertsTimeout = getEnvDuration("GOOGLE_CERTS_TIMEOUT", 5*time.Second)

	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)

	cfg.ServerPort = getEnvString("SERVER_PORT", "5001")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", "info"))

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
