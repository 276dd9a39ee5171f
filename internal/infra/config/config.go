package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverFile     = "file"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken       string
	OwnerTelegramID     int64
	LogLevel            string
	Environment         string
	StoreDriver         string
	DatabaseURL         string // Postgres DSN, used when StoreDriver is postgres
	SQLitePath          string
	StateFile           string // YAML anchor file, used when StoreDriver is file
	DefaultWorkMinutes  int
	DefaultBreakMinutes int
	CronSpecTick        string  // Drives the countdown resync
	CronSpecDispatch    string  // Drives delivery of due reminders
	SoundWorkEnd        string  // WAV played when a work session ends
	SoundBreakEnd       string  // WAV played when a break ends
	SoundVolume         float64 // Base-2 gain applied to cues, 0 plays them as recorded
	ReminderTitle       string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	ownerIDStr := os.Getenv("OWNER_TELEGRAM_ID")
	if ownerIDStr == "" {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is not set")
	}
	cfg.OwnerTelegramID, err = strconv.ParseInt(ownerIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OWNER_TELEGRAM_ID: %w", err)
	}

	if err := loadStore(cfg); err != nil {
		return nil, err
	}
	loadCommon(cfg)

	cfg.DefaultWorkMinutes, err = intOrDefault("DEFAULT_WORK_MINUTES", 25)
	if err != nil {
		return nil, err
	}
	cfg.DefaultBreakMinutes, err = intOrDefault("DEFAULT_BREAK_MINUTES", 5)
	if err != nil {
		return nil, err
	}

	cfg.CronSpecTick = stringOrDefault("CRON_SPEC_TICK", "@every 1s")
	cfg.CronSpecDispatch = stringOrDefault("CRON_SPEC_DISPATCH", "@every 10s")
	cfg.SoundWorkEnd = os.Getenv("SOUND_WORK_END")
	cfg.SoundBreakEnd = os.Getenv("SOUND_BREAK_END")
	cfg.SoundVolume, err = floatOrDefault("SOUND_VOLUME", 0)
	if err != nil {
		return nil, err
	}
	cfg.ReminderTitle = stringOrDefault("REMINDER_TITLE", "LightPomo")

	return cfg, nil
}

// LoadStoreOnly reads just the logging and storage settings. The operator CLI
// uses it, since it never talks to Telegram.
func LoadStoreOnly() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := loadStore(cfg); err != nil {
		return nil, err
	}
	loadCommon(cfg)
	return cfg, nil
}

func loadCommon(cfg *AppConfig) {
	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}
}

func loadStore(cfg *AppConfig) error {
	cfg.StoreDriver = strings.ToLower(stringOrDefault("STORE_DRIVER", StoreDriverSQLite))
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set (required for STORE_DRIVER=postgres)")
		}
	case StoreDriverSQLite:
		cfg.SQLitePath = stringOrDefault("SQLITE_PATH", "interval_reminder.db")
	case StoreDriverFile:
		// The YAML store keeps the anchor only; reminders still need a database.
		cfg.StateFile = os.Getenv("STATE_FILE")
		cfg.SQLitePath = stringOrDefault("SQLITE_PATH", "interval_reminder.db")
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q (want postgres, sqlite or file)", cfg.StoreDriver)
	}
	return nil
}

func stringOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOrDefault(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func floatOrDefault(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
