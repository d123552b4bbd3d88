package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smartplant/auth/internal/auth/mail"
	"github.com/smartplant/auth/pkg/httpx"
	"github.com/smartplant/auth/pkg/jwtx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

type Config struct {
	Issuer    string // Issuer claim for tokens (default: smartplant-auth)
	JWTSecret string // Required: HS256 key, at least 32 bytes

	DBDriver     string // sqlite or postgres (default: sqlite)
	DatabaseFile string // SQLite database path (default: ./auth.db)
	DatabaseURL  string // PostgreSQL DSN, required for the postgres driver
	PepperFile   string // Pepper for password hashing (default: ./pepper)
	RedisURL     string // Optional: shares rate limit counters between instances

	MailDriver       string        // smtp or log (default: smtp, log when ENV=dev)
	SMTPHost         string        // Required for the smtp driver
	SMTPPort         int           // Default: 587
	SMTPUsername     string        // Optional: enables PLAIN auth
	SMTPPassword     string        // Optional
	MailFrom         string        // Sender address, required for the smtp driver
	MailFromName     string        // Display name (default: SmartPlant Sarawak)
	MailPollInterval time.Duration // Outbox poll interval (default: 10s)
	MailMaxAttempts  int           // Send attempts before a code mail is dropped (default: 5)

	ServiceAPIKey  string // Optional: key of the training service; empty disables introspection
	BootstrapToken string // Optional: token required to perform bootstrap
	CookieSecure   bool   // Secure flag on auth cookies (default: true in prod)
	TrustedProxies string // Comma separated CIDRs whose X-Forwarded-For is believed (default: none)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")
	defaultMail := MailDriverSMTP
	if env == "dev" {
		defaultMail = MailDriverLog
	}

	return Config{
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "smartplant-auth"),
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		DBDriver:     strings.ToLower(getEnvOrDefault("AUTH_DB_DRIVER", DriverSQLite)),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:  os.Getenv("AUTH_DATABASE_URL"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		RedisURL:     os.Getenv("REDIS_URL"),

		MailDriver:       strings.ToLower(getEnvOrDefault("MAIL_DRIVER", defaultMail)),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         os.Getenv("MAIL_FROM"),
		MailFromName:     getEnvOrDefault("MAIL_FROM_NAME", mail.DefaultFromName),
		MailPollInterval: getEnvDurationOrDefault("MAIL_POLL_INTERVAL", mail.DefaultPollInterval),
		MailMaxAttempts:  getEnvIntOrDefault("MAIL_MAX_ATTEMPTS", mail.DefaultMaxAttempts),

		ServiceAPIKey:  os.Getenv("AI_SERVER_API_KEY"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),
		CookieSecure:   getEnvBoolOrDefault("COOKIE_SECURE", env == "prod"),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	case len(c.JWTSecret) < jwtx.MinSecretLength:
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_DB_DRIVER %q is not one of sqlite, postgres", c.DBDriver))
	}

	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp mail driver"))
		}
		if c.MailFrom == "" {
			errs = append(errs, errors.New("MAIL_FROM is required for the smtp mail driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_DRIVER %q is not one of smtp, log", c.MailDriver))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
