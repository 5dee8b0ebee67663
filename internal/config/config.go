package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName   string
	AppEnv    string
	AppURL    string
	Port      string
	UploadDir string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security (tokens are issued by the login service, we only verify them)
	JWTSecret string

	// AI completion
	AIProvider        string // "openrouter" or "gemini"
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	GeminiAPIKey      string
	AIModelMultimodal string
	AIModelText       string
	AIModelReply      string
	AIMaxTokens       int
	AIReplyMaxTokens  int
	AIRequestTimeout  time.Duration
	AIReferer         string

	// Platforms
	LinkedInBaseURL     string
	InstagramBaseURL    string
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRedirectURL  string

	// Publishing
	InstagramImageDelay   time.Duration
	InstagramPollInterval time.Duration
	InstagramPollAttempts int

	// Engagement scanner
	ScanEnabled      bool
	ScanInterval     time.Duration
	ScanPostLimit    int
	ScanCommentLimit int
	ScanReplyDelay   time.Duration
	ScanLockPath     string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible, optional: stages uploaded bytes behind a public URL for Instagram)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // How long the staged media URL stays valid
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:   envString("APP_NAME", "SynapSocial"),
		AppEnv:    envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:    envString("APP_URL", "http://localhost:5000"),
		Port:      envString("PORT", "5000"),
		UploadDir: envString("UPLOAD_DIR", os.TempDir()),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/synapsocial.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),

		// AI (keys are checked on first use, a missing key is a configuration error per call)
		AIProvider:        envString("AI_PROVIDER", "openrouter"),
		OpenRouterAPIKey:  envString("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: envString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		GeminiAPIKey:      envString("GEMINI_API_KEY", ""),
		AIModelMultimodal: envString("AI_MODEL_MULTIMODAL", "google/gemini-2.5-flash-lite-preview-09-2025"),
		AIModelText:       envString("AI_MODEL_TEXT", "google/gemini-2.5-flash-lite-preview-09-2025"),
		AIModelReply:      envString("AI_MODEL_REPLY", "google/gemini-2.5-flash-lite-preview-09-2025"),
		AIMaxTokens:       envInt("AI_MAX_TOKENS", 600),
		AIReplyMaxTokens:  envInt("AI_REPLY_MAX_TOKENS", 80),
		AIRequestTimeout:  envDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
		AIReferer:         envString("AI_REFERER", "http://localhost:3000"),

		// Platforms
		LinkedInBaseURL:     envString("LINKEDIN_BASE_URL", "https://api.linkedin.com"),
		InstagramBaseURL:    envString("INSTAGRAM_BASE_URL", "https://graph.facebook.com/v18.0"),
		YouTubeClientID:     envString("YOUTUBE_CLIENT_ID", ""),
		YouTubeClientSecret: envString("YOUTUBE_CLIENT_SECRET", ""),
		YouTubeRedirectURL:  envString("YOUTUBE_REDIRECT_URL", "http://localhost:5000/api/platforms/youtube/callback"),

		// Publishing
		InstagramImageDelay:   envDuration("INSTAGRAM_IMAGE_DELAY", 3*time.Second),
		InstagramPollInterval: envDuration("INSTAGRAM_POLL_INTERVAL", 5*time.Second),
		InstagramPollAttempts: envInt("INSTAGRAM_POLL_ATTEMPTS", 20),

		// Engagement scanner (30 minutes keeps YouTube quota usage low)
		ScanEnabled:      envBool("SCAN_ENABLED", true),
		ScanInterval:     envDuration("SCAN_INTERVAL", 30*time.Minute),
		ScanPostLimit:    envInt("SCAN_POST_LIMIT", 5),
		ScanCommentLimit: envInt("SCAN_COMMENT_LIMIT", 20),
		ScanReplyDelay:   envDuration("SCAN_REPLY_DELAY", 1500*time.Millisecond),
		ScanLockPath:     envString("SCAN_LOCK_PATH", filepath.Join(os.TempDir(), "synapsocial-scan.lock")),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envString("S3_REGION", ""),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),                  // Optional: for non-AWS providers
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour), // Instagram fetches the file within minutes
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures the AI provider is configured for production deployments.
// Development allows a missing key so the rest of the API can be exercised locally.
func validateProduction(cfg *Config) {
	if cfg.AIProvider == "openrouter" && cfg.OpenRouterAPIKey == "" {
		slog.Error("production deployment requires OPENROUTER_API_KEY",
			"hint", "set AI_PROVIDER=gemini with GEMINI_API_KEY, or APP_ENV=development")
		os.Exit(1)
	}
	if cfg.AIProvider == "gemini" && cfg.GeminiAPIKey == "" {
		slog.Error("production deployment requires GEMINI_API_KEY")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether media staging has a bucket to write to.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// API keys, client secrets and storage credentials are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		AppURL:  c.AppURL,
		Port:    c.Port,

		AIProvider:        c.AIProvider,
		AIModelMultimodal: c.AIModelMultimodal,
		AIModelText:       c.AIModelText,
		AIModelReply:      c.AIModelReply,

		YouTubeClientID: c.YouTubeClientID,

		ScanEnabled:  c.ScanEnabled,
		ScanInterval: c.ScanInterval,

		S3Endpoint: c.S3Endpoint,
	}
}
