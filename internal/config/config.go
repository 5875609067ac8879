package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"seven23/internal/calendar"
	"seven23/internal/core"
	"seven23/internal/log"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel string

	// Display
	Currency string

	// Calendar heat-map
	CalendarColor         string
	CalendarQuantile      float64
	CalendarMonthsPerLine int
	CalendarWeekday       string
	CalendarWidth         float64
	CalendarDarkTheme     bool

	// Render cache
	RenderCacheSize int
	RenderCacheTTL  time.Duration
}

// LoadDotEnv loads the given .env files, or ./.env when none is given.
// Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/seven23.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "seven23"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_transactions"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Currency: getEnv("CURRENCY", "EUR"),

		CalendarColor:         getEnv("CALENDAR_COLOR", ""),
		CalendarQuantile:      getEnvFloat("CALENDAR_QUANTILE", calendar.DefaultQuantile),
		CalendarMonthsPerLine: getEnvInt("CALENDAR_MONTHS_PER_LINE", 0),
		CalendarWeekday:       getEnv("CALENDAR_WEEKDAY", string(calendar.Monday)),
		CalendarWidth:         getEnvFloat("CALENDAR_WIDTH", calendar.DefaultWidth),
		CalendarDarkTheme:     getEnvBool("CALENDAR_DARK", false),

		RenderCacheSize: getEnvInt("RENDER_CACHE_SIZE", 64),
		RenderCacheTTL:  getEnvDuration("RENDER_CACHE_TTL", 5*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
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

	// AMQP is optional; when configured it must be complete.
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

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if _, err := core.LookupCurrency(c.Currency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currency '%s'", c.Currency))
	}

	if c.CalendarColor != "" {
		if _, err := calendar.ParsePaint(c.CalendarColor); err != nil {
			errors = append(errors, fmt.Sprintf("invalid calendar color '%s': %v", c.CalendarColor, err))
		}
	}
	if !(c.CalendarQuantile > 0 && c.CalendarQuantile <= 1) {
		errors = append(errors, fmt.Sprintf("invalid calendar quantile %v: must be in (0, 1]", c.CalendarQuantile))
	}
	if c.CalendarMonthsPerLine != 0 &&
		(c.CalendarMonthsPerLine < calendar.MinMonthsPerLine || c.CalendarMonthsPerLine > calendar.MaxMonthsPerLine) {
		errors = append(errors, fmt.Sprintf("invalid months per line %d: must be 0 or between 1 and 12", c.CalendarMonthsPerLine))
	}
	if _, err := calendar.ParseWeekConvention(c.CalendarWeekday); err != nil {
		errors = append(errors, fmt.Sprintf("invalid calendar weekday '%s': must be monday, sunday or weekday", c.CalendarWeekday))
	}
	if c.CalendarWidth < 100 || c.CalendarWidth > 4000 {
		errors = append(errors, fmt.Sprintf("invalid calendar width %v: must be between 100 and 4000", c.CalendarWidth))
	}

	if c.RenderCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid render cache size %d: must be at least 1", c.RenderCacheSize))
	}
	if c.RenderCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid render cache TTL %v: must be at least 1 second", c.RenderCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// WeekConvention returns the parsed CALENDAR_WEEKDAY. Call after Validate.
func (c *Config) WeekConvention() calendar.WeekConvention {
	conv, err := calendar.ParseWeekConvention(c.CalendarWeekday)
	if err != nil {
		return calendar.Monday
	}
	return conv
}

// Theme returns the palette selected by CALENDAR_DARK.
func (c *Config) Theme() calendar.Theme {
	if c.CalendarDarkTheme {
		return calendar.DarkTheme
	}
	return calendar.DefaultTheme
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
