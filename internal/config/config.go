package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// History persistence
	HistoryBackend string
	SQLiteDBPath   string
	HistoryKey     string

	// Workstation
	ExportFilePrefix string
	LabelProfileFile string
	SessionTTL       time.Duration
	MaxSessions      int
	PrintWindowTTL   time.Duration
	CookieSecure     bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Label mirror: "google" or "memory"
	MirrorBackend            string
	GoogleSpreadsheetID      string
	GoogleLabelsSheetName    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	ReconcileInterval  time.Duration
	ReconcileBatchSize int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HistoryBackend: getEnv("HISTORY_BACKEND", "memory"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/etiket.db"),
		HistoryKey:     getEnv("HISTORY_KEY", "daily-export-label-history"),

		ExportFilePrefix: getEnv("EXPORT_FILE_PREFIX", "gunluk-ozet"),
		LabelProfileFile: getEnv("LABEL_PROFILE_FILE", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL", 12*time.Hour),
		MaxSessions:      getEnvInt("MAX_SESSIONS", 500),
		PrintWindowTTL:   getEnvDuration("PRINT_WINDOW_TTL", 2*time.Minute),
		CookieSecure:     getEnvBool("COOKIE_SECURE", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "etiket"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "label_mirror"),

		MirrorBackend:            getEnv("MIRROR_BACKEND", "google"),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleLabelsSheetName:    getEnv("GOOGLE_LABELS_SHEET_NAME", "Etiketler"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ReconcileInterval:  getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute),
		ReconcileBatchSize: getEnvInt("RECONCILE_BATCH_SIZE", 20),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.HistoryBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid history backend '%s': must be one of %v", c.HistoryBackend, validBackends))
	}

	if c.HistoryBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if strings.TrimSpace(c.HistoryKey) == "" {
		errors = append(errors, "history key cannot be empty")
	}

	if strings.TrimSpace(c.ExportFilePrefix) == "" {
		errors = append(errors, "export file prefix cannot be empty")
	} else if strings.ContainsAny(c.ExportFilePrefix, `/\`) {
		errors = append(errors, fmt.Sprintf("invalid export file prefix '%s': must not contain path separators", c.ExportFilePrefix))
	}

	if c.LabelProfileFile != "" {
		if _, err := os.Stat(c.LabelProfileFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("label profile file does not exist: %s", c.LabelProfileFile))
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}
	if c.PrintWindowTTL < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid print window TTL %v: must be at least 10 seconds", c.PrintWindowTTL))
	}

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

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.ReconcileInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 second", c.ReconcileInterval))
	} else if c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 24 hours", c.ReconcileInterval))
	}
	if c.ReconcileBatchSize < 1 || c.ReconcileBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid reconcile batch size %d: must be between 1 and 1000", c.ReconcileBatchSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks what the mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	switch c.MirrorBackend {
	case "", "google":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the worker")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the worker")
		}
	case "memory":
	default:
		errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of [google memory]", c.MirrorBackend))
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
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
