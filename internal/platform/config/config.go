package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     slog.Level

	DatabaseURL    string
	MigrationsPath string

	CORSOrigins []string

	// Token Config
	JWTIssuer          string
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration

	AccessTokenCookieName  string
	RefreshTokenCookieName string
	CookieSecure           bool

	RevokeSessionsOnPasswordChange bool

	// Uploads and Object Store
	UploadTempDir   string
	UploadTimeout   time.Duration
	MaxUploadBytes  int64
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
	S3UsePathStyle  bool

	// Rate limiting of the public auth routes, in limiter format ("10-M").
	AuthRateLimit string
	RedisURL      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("JWT_ISSUER", "videotube-backend")
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_EXPIRY", "1h")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_TOKEN_EXPIRY", "240h")
	v.SetDefault("ACCESS_TOKEN_COOKIE_NAME", "accessToken")
	v.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "refreshToken")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("REVOKE_SESSIONS_ON_PASSWORD_CHANGE", false)
	v.SetDefault("UPLOAD_TEMP_DIR", "./public/temp")
	v.SetDefault("UPLOAD_TIMEOUT", "30s")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("S3_BUCKET", "videotube")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("AUTH_RATE_LIMIT", "20-M")
	v.SetDefault("REDIS_URL", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                           v.GetString("PORT"),
		IsProduction:                   v.GetBool("IS_PRODUCTION"),
		DatabaseURL:                    v.GetString("PGSQL_URL"),
		MigrationsPath:                 v.GetString("MIGRATIONS_PATH"),
		JWTIssuer:                      v.GetString("JWT_ISSUER"),
		AccessTokenSecret:              v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:             v.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenCookieName:          v.GetString("ACCESS_TOKEN_COOKIE_NAME"),
		RefreshTokenCookieName:         v.GetString("REFRESH_TOKEN_COOKIE_NAME"),
		CookieSecure:                   v.GetBool("COOKIE_SECURE"),
		RevokeSessionsOnPasswordChange: v.GetBool("REVOKE_SESSIONS_ON_PASSWORD_CHANGE"),
		UploadTempDir:                  v.GetString("UPLOAD_TEMP_DIR"),
		MaxUploadBytes:                 v.GetInt64("MAX_UPLOAD_BYTES"),
		S3Bucket:                       v.GetString("S3_BUCKET"),
		S3Region:                       v.GetString("S3_REGION"),
		S3Endpoint:                     v.GetString("S3_ENDPOINT"),
		S3AccessKey:                    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:                    v.GetString("S3_SECRET_KEY"),
		S3PublicBaseURL:                strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
		S3UsePathStyle:                 v.GetBool("S3_USE_PATH_STYLE"),
		AuthRateLimit:                  v.GetString("AUTH_RATE_LIMIT"),
		RedisURL:                       v.GetString("REDIS_URL"),
	}

	if cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL environment variable not set.")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	for _, origin := range strings.Split(v.GetString("CORS_ORIGIN"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	var err error
	if cfg.AccessTokenExpiry, err = parsePositiveDuration(v, "ACCESS_TOKEN_EXPIRY"); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenExpiry, err = parsePositiveDuration(v, "REFRESH_TOKEN_EXPIRY"); err != nil {
		return nil, err
	}
	if cfg.UploadTimeout, err = parsePositiveDuration(v, "UPLOAD_TIMEOUT"); err != nil {
		return nil, err
	}

	// Each token class needs its own secret.
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	if cfg.S3PublicBaseURL == "" && cfg.S3Endpoint != "" {
		cfg.S3PublicBaseURL = strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
		slog.Warn("S3_PUBLIC_BASE_URL not set, deriving from S3_ENDPOINT", slog.String("base_url", cfg.S3PublicBaseURL))
	}

	return cfg, nil
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
