package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/email"
	"github.com/volunqueer/volunqueer/internal/validation"
)

// DataSource selects where application data is read from and written to.
type DataSource string

const (
	DataSourceMock      DataSource = "mock"
	DataSourcePostgres  DataSource = "postgres"
	DataSourceMongo     DataSource = "mongo"
	DataSourceFirestore DataSource = "firestore"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	DataSource DataSource
	Seed       bool

	DBDSN            string
	MongoURI         string
	MongoDatabase    string
	FirestoreProject string

	JWTSecret   string
	SessionDays int

	LogLevel string

	RateLimitRPM int

	SlackWebhookURL string
	SlackTimeoutMS  int

	MailProvider       string
	MailFrom           string
	MailFromName       string
	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string

	ReminderWindow   time.Duration
	ArchiveAfterDays int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Env = getEnvOrDefault("VQ_ENV", "dev")
	if cfg.Env != "dev" && cfg.Env != "prod" {
		return nil, fmt.Errorf("VQ_ENV must be one of: dev, prod (got: %s)", cfg.Env)
	}

	cfg.HTTPAddr = getEnvOrDefault("VQ_HTTP_ADDR", ":8080")
	cfg.BaseURL = strings.TrimRight(getEnvOrDefault("VQ_BASE_URL", "http://localhost:8080"), "/")

	cfg.DataSource = DataSource(getEnvOrDefault("VQ_DATA_SOURCE", string(DataSourceMock)))
	switch cfg.DataSource {
	case DataSourceMock, DataSourcePostgres, DataSourceMongo, DataSourceFirestore:
	default:
		log.Warn().Str("data_source", string(cfg.DataSource)).Msg("Unknown VQ_DATA_SOURCE, using mock data")
		cfg.DataSource = DataSourceMock
	}

	var err error
	cfg.Seed, err = getEnvBoolOrDefault("VQ_SEED", false)
	if err != nil {
		return nil, err
	}

	cfg.DBDSN = strings.TrimSpace(os.Getenv("VQ_DB_DSN"))
	if cfg.DataSource == DataSourcePostgres && cfg.DBDSN == "" {
		return nil, fmt.Errorf("VQ_DB_DSN is required when VQ_DATA_SOURCE is postgres")
	}
	cfg.MongoURI = getEnvOrDefault("VQ_MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDatabase = getEnvOrDefault("VQ_MONGO_DATABASE", "volunqueer")
	cfg.FirestoreProject = strings.TrimSpace(os.Getenv("VQ_FIRESTORE_PROJECT"))
	if cfg.DataSource == DataSourceFirestore && cfg.FirestoreProject == "" {
		return nil, fmt.Errorf("VQ_FIRESTORE_PROJECT is required when VQ_DATA_SOURCE is firestore")
	}

	cfg.JWTSecret = os.Getenv("VQ_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("VQ_JWT_SECRET is required")
	}
	if cfg.Env == "prod" && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("VQ_JWT_SECRET must be at least 32 characters (currently %d)", len(cfg.JWTSecret))
	}

	cfg.SessionDays, err = getEnvIntOrDefault("VQ_SESSION_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if cfg.SessionDays < 1 {
		return nil, fmt.Errorf("VQ_SESSION_DAYS must be at least 1 (got: %d)", cfg.SessionDays)
	}

	cfg.LogLevel = getEnvOrDefault("VQ_LOG_LEVEL", "info")
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("VQ_LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", cfg.LogLevel)
	}

	cfg.RateLimitRPM, err = getEnvIntOrDefault("VQ_RATE_LIMIT_RPM", 120)
	if err != nil {
		return nil, err
	}

	cfg.SlackWebhookURL = strings.TrimSpace(os.Getenv("VQ_SLACK_WEBHOOK_URL"))
	if cfg.SlackWebhookURL != "" {
		if err := validation.ValidateWebhookURL(cfg.SlackWebhookURL); err != nil {
			return nil, fmt.Errorf("VQ_SLACK_WEBHOOK_URL: %w", err)
		}
	}
	cfg.SlackTimeoutMS, err = getEnvIntOrDefault("VQ_SLACK_TIMEOUT_MS", 2000)
	if err != nil {
		return nil, err
	}
	if cfg.SlackTimeoutMS <= 0 || cfg.SlackTimeoutMS > 30000 {
		return nil, fmt.Errorf("VQ_SLACK_TIMEOUT_MS must be between 1 and 30000 (got: %d)", cfg.SlackTimeoutMS)
	}

	cfg.MailProvider = getEnvOrDefault("VQ_MAIL_PROVIDER", email.ProviderNoop)
	cfg.MailFrom = getEnvOrDefault("VQ_MAIL_FROM", "no-reply@volunqueer.app")
	cfg.MailFromName = getEnvOrDefault("VQ_MAIL_FROM_NAME", "VolunQueer")
	cfg.SESRegion = strings.TrimSpace(os.Getenv("VQ_SES_REGION"))
	cfg.SESAccessKeyID = strings.TrimSpace(os.Getenv("VQ_SES_ACCESS_KEY_ID"))
	cfg.SESSecretAccessKey = strings.TrimSpace(os.Getenv("VQ_SES_SECRET_ACCESS_KEY"))
	if cfg.MailProvider == email.ProviderSES && cfg.SESRegion == "" {
		return nil, fmt.Errorf("VQ_SES_REGION is required when VQ_MAIL_PROVIDER is ses")
	}

	windowHours, err := getEnvIntOrDefault("VQ_REMINDER_WINDOW_HOURS", 24)
	if err != nil {
		return nil, err
	}
	if windowHours < 1 {
		return nil, fmt.Errorf("VQ_REMINDER_WINDOW_HOURS must be at least 1 (got: %d)", windowHours)
	}
	cfg.ReminderWindow = time.Duration(windowHours) * time.Hour

	cfg.ArchiveAfterDays, err = getEnvIntOrDefault("VQ_ARCHIVE_AFTER_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if cfg.ArchiveAfterDays < 1 {
		return nil, fmt.Errorf("VQ_ARCHIVE_AFTER_DAYS must be at least 1 (got: %d)", cfg.ArchiveAfterDays)
	}

	return cfg, nil
}

// IsDev returns true if running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// Mailer returns the email provider settings.
func (c *Config) Mailer() email.MailerConfig {
	return email.MailerConfig{
		Provider:    c.MailProvider,
		FromAddress: c.MailFrom,
		FromName:    c.MailFromName,
		SES: email.SESConfig{
			Region:          c.SESRegion,
			AccessKeyID:     c.SESAccessKeyID,
			SecretAccessKey: c.SESSecretAccessKey,
		},
	}
}

// RedactedValues returns a map of config values with secrets redacted.
func (c *Config) RedactedValues() map[string]string {
	return map[string]string{
		"VQ_ENV":                   c.Env,
		"VQ_HTTP_ADDR":             c.HTTPAddr,
		"VQ_BASE_URL":              c.BaseURL,
		"VQ_DATA_SOURCE":           string(c.DataSource),
		"VQ_SEED":                  strconv.FormatBool(c.Seed),
		"VQ_DB_DSN":                redactDSN(c.DBDSN),
		"VQ_MONGO_URI":             redactDSN(c.MongoURI),
		"VQ_MONGO_DATABASE":        c.MongoDatabase,
		"VQ_FIRESTORE_PROJECT":     c.FirestoreProject,
		"VQ_JWT_SECRET":            "[REDACTED]",
		"VQ_SESSION_DAYS":          strconv.Itoa(c.SessionDays),
		"VQ_LOG_LEVEL":             c.LogLevel,
		"VQ_RATE_LIMIT_RPM":        strconv.Itoa(c.RateLimitRPM),
		"VQ_SLACK_WEBHOOK_URL":     redactSecret(c.SlackWebhookURL),
		"VQ_SLACK_TIMEOUT_MS":      strconv.Itoa(c.SlackTimeoutMS),
		"VQ_MAIL_PROVIDER":         c.MailProvider,
		"VQ_MAIL_FROM":             c.MailFrom,
		"VQ_SES_REGION":            c.SESRegion,
		"VQ_SES_SECRET_ACCESS_KEY": redactSecret(c.SESSecretAccessKey),
		"VQ_REMINDER_WINDOW_HOURS": strconv.Itoa(int(c.ReminderWindow / time.Hour)),
		"VQ_ARCHIVE_AFTER_DAYS":    strconv.Itoa(c.ArchiveAfterDays),
	}
}

func redactDSN(dsn string) string {
	if start := strings.Index(dsn, "://"); start != -1 {
		if end := strings.Index(dsn[start+3:], "@"); end != -1 {
			return dsn[:start+3] + "[REDACTED]" + dsn[start+3+end:]
		}
	}
	return dsn
}

func redactSecret(value string) string {
	if value == "" {
		return ""
	}
	return "[REDACTED]"
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean (got: %q)", key, value)
	}
	return parsed, nil
}
