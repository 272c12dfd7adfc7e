package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Orders
	PaymentTimeout time.Duration

	// Merchant Pix defaults (replaceable at runtime by the admin)
	PixKey           string
	PixKeyType       string
	PixRecipientName string
	PixCity          string

	// QR rendering
	QRSize  int
	QRLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Order store. With USE_SUPABASE=false orders live in memory, which
	// is enough for a single-process deployment.
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	UseSupabase        bool

	// JWT / Auth
	JWTSecret         string
	JWTAccessTTL      time.Duration
	AdminPasswordHash string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PaymentTimeout: getEnvDuration("PAYMENT_TIMEOUT", 15*time.Minute),

		PixKey:           getEnv("PIX_KEY", ""),
		PixKeyType:       getEnv("PIX_KEY_TYPE", "email"),
		PixRecipientName: getEnv("PIX_RECIPIENT_NAME", ""),
		PixCity:          getEnv("PIX_CITY", "SAO PAULO"),

		QRSize:  getEnvInt("QR_SIZE", 300),
		QRLevel: getEnv("QR_LEVEL", "M"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		UseSupabase:        getEnv("USE_SUPABASE", "false") == "true",

		JWTSecret:         getEnv("JWT_SECRET", "checkout-default-dev-secret-change-me"),
		JWTAccessTTL:      getEnvDuration("JWT_ACCESS_TTL", 12*time.Hour),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

// MerchantConfig builds the initial Pix beneficiary configuration.
func (c *Config) MerchantConfig() domain.MerchantConfig {
	return domain.MerchantConfig{
		Key:           c.PixKey,
		KeyType:       domain.PixKeyType(c.PixKeyType),
		RecipientName: c.PixRecipientName,
		City:          c.PixCity,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
