package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultPlatformFeeRate = "0.20"

var feeRatePattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string
	ConnectRefreshURL   string
	ConnectReturnURL    string

	FirebaseCredentialsFile string
	FirebaseProjectID       string

	MeetingBaseURL string

	// PlatformFeeBps is the platform fee in basis points (2000 = 20%).
	PlatformFeeBps int64
	// AuthorizationTTL is zero when no expiry sweep should run.
	AuthorizationTTL time.Duration
	Location         *time.Location
}

// LoadConfig reads .env (when present) and the process environment. Secrets have
// no fallback values: a missing one fails startup.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from any lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &Config{
		Port:                    get("PORT", "8080"),
		DatabaseURL:             get("DATABASE_URL", ""),
		RedisURL:                get("REDIS_URL", ""),
		JWTSecret:               get("JWT_SECRET", ""),
		StripeSecretKey:         get("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:     get("STRIPE_WEBHOOK_SECRET", ""),
		ConnectRefreshURL:       get("CONNECT_REFRESH_URL", ""),
		ConnectReturnURL:        get("CONNECT_RETURN_URL", ""),
		FirebaseCredentialsFile: get("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseProjectID:       get("FIREBASE_PROJECT_ID", ""),
		MeetingBaseURL:          get("MEETING_BASE_URL", "https://meet.jit.si"),
	}

	var missing []string
	for key, value := range map[string]string{
		"DATABASE_URL":              cfg.DatabaseURL,
		"REDIS_URL":                 cfg.RedisURL,
		"JWT_SECRET":                cfg.JWTSecret,
		"STRIPE_SECRET_KEY":         cfg.StripeSecretKey,
		"FIREBASE_CREDENTIALS_FILE": cfg.FirebaseCredentialsFile,
		"FIREBASE_PROJECT_ID":       cfg.FirebaseProjectID,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	bps, err := parseFeeRate(get("PLATFORM_FEE_RATE", defaultPlatformFeeRate))
	if err != nil {
		return nil, err
	}
	cfg.PlatformFeeBps = bps

	if raw := get("AUTHORIZATION_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("AUTHORIZATION_TTL must be a positive duration, got %q", raw)
		}
		cfg.AuthorizationTTL = ttl
	}

	loc, err := time.LoadLocation(get("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

// parseFeeRate converts a decimal rate to basis points. Rates finer than one
// basis point are rejected rather than rounded.
func parseFeeRate(raw string) (int64, error) {
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || !feeRatePattern.MatchString(raw) || rate < 0 || rate >= 1 {
		return 0, fmt.Errorf("PLATFORM_FEE_RATE must be a decimal in [0, 1), got %q", raw)
	}
	if _, frac, ok := strings.Cut(raw, "."); ok && len(strings.TrimRight(frac, "0")) > 4 {
		return 0, fmt.Errorf("PLATFORM_FEE_RATE supports at most 4 decimal places, got %q", raw)
	}
	return int64(math.Round(rate * 10000)), nil
}
