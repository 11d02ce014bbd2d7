package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"moneytracker/internal/render"
)

type Config struct {
	// HTTP Server
	Port          string
	LogLevel      string
	JWTSecret     string
	ReportTimeout time.Duration

	// Ledger backend selection
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string
	SeedFile     string
	UserCacheTTL time.Duration

	// Report presentation
	ReportLocale      string
	ReportTimezone    string
	ReportProductName string

	// Scheduler
	SchedulerEnabled     bool
	ScheduleWeekly       string
	ScheduleMonthly      string
	SchedulerConcurrency int

	// Mail delivery
	MailTransport        string
	MailFrom             string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	GmailCredentialsFile string
	GmailCredentialsJSON string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

var (
	validBackends   = []string{"memory", "sqlite", "postgres"}
	validTransports = []string{"log", "smtp", "gmail", "amqp"}
)

func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8081"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		ReportTimeout: getEnvDuration("REPORT_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moneytracker.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SeedFile:     getEnv("SEED_FILE", ""),
		UserCacheTTL: getEnvDuration("USER_CACHE_TTL", 30*time.Second),

		ReportLocale:      getEnv("REPORT_LOCALE", render.DefaultLocale),
		ReportTimezone:    getEnv("REPORT_TIMEZONE", "Local"),
		ReportProductName: getEnv("REPORT_PRODUCT_NAME", render.DefaultProductName),

		SchedulerEnabled:     getEnvBool("SCHEDULER_ENABLED", true),
		ScheduleWeekly:       getEnv("SCHEDULE_WEEKLY", "0 9 * * 1"),
		ScheduleMonthly:      getEnv("SCHEDULE_MONTHLY", "0 9 1 * *"),
		SchedulerConcurrency: getEnvInt("SCHEDULER_CONCURRENCY", 1),

		MailTransport:        getEnv("MAIL_TRANSPORT", "log"),
		MailFrom:             getEnv("MAIL_FROM", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		GmailCredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", ""),
		GmailCredentialsJSON: getEnv("GMAIL_CREDENTIALS_JSON", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneytracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_emails"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	case "memory":
		if c.SeedFile != "" {
			if _, err := os.Stat(c.SeedFile); err != nil {
				errors = append(errors, fmt.Sprintf("seed file is not readable: %s", c.SeedFile))
			}
		}
	}

	if c.UserCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid user cache TTL %v: must not be negative", c.UserCacheTTL))
	}

	if c.ReportTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid report timeout %v: must be positive", c.ReportTimeout))
	}

	if !render.SupportedLocale(c.ReportLocale) {
		errors = append(errors, fmt.Sprintf("unsupported report locale '%s': must be en or es", c.ReportLocale))
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
	}

	// Validate scheduler
	for name, spec := range map[string]string{"SCHEDULE_WEEKLY": c.ScheduleWeekly, "SCHEDULE_MONTHLY": c.ScheduleMonthly} {
		if _, err := cron.ParseStandard(spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, spec, err))
		}
	}
	if c.SchedulerConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid scheduler concurrency %d: must be at least 1", c.SchedulerConcurrency))
	} else if c.SchedulerConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid scheduler concurrency %d: must be at most 64", c.SchedulerConcurrency))
	}

	// Validate mail transport
	if !slices.Contains(validTransports, c.MailTransport) {
		errors = append(errors, fmt.Sprintf("invalid mail transport '%s': must be one of %v", c.MailTransport, validTransports))
	}
	switch c.MailTransport {
	case "smtp":
		if c.SMTPHost == "" {
			errors = append(errors, "SMTP_HOST is required when using smtp transport")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid SMTP port %d: must be between 1 and 65535", c.SMTPPort))
		}
		if c.MailFrom == "" {
			errors = append(errors, "MAIL_FROM is required when using smtp transport")
		}
	case "gmail":
		if c.GmailCredentialsFile == "" && c.GmailCredentialsJSON == "" {
			errors = append(errors, "either GMAIL_CREDENTIALS_FILE or GMAIL_CREDENTIALS_JSON must be provided for gmail transport")
		}
		if c.GmailCredentialsFile != "" {
			if _, err := os.Stat(c.GmailCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Gmail credentials file does not exist: %s", c.GmailCredentialsFile))
			}
		}
		if c.MailFrom == "" {
			errors = append(errors, "MAIL_FROM is required when using gmail transport")
		}
	case "amqp":
		if c.AMQPURL == "" {
			errors = append(errors, "AMQP_URL is required when using amqp transport")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateServer adds the checks only the HTTP API needs.
func (c *Config) ValidateServer() error {
	err := c.Validate()
	var problems []string
	if err != nil {
		problems = append(problems, strings.TrimPrefix(err.Error(), "configuration validation failed:\n- "))
	}
	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Location is the zone schedules fire in and periods are resolved in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
