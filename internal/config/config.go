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

	"golang.org/x/text/language"

	"zapledger/internal/core"
)

var validBackends = []string{"memory", "sqlite", "sheets", "notion", "mongo"}

type Config struct {
	// HTTP server
	Port               string
	RateLimitPerMinute int
	CORSAllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Pipeline
	DataBackend          string
	MessageSchema        string
	AggregateDimension   string
	DefaultPaymentType   string
	LabelLanguage        string
	NotifyOnStoreFailure bool

	// Reply rendering
	CurrencySymbol     string
	ThousandsSeparator string
	DecimalSeparator   string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Notion
	NotionToken              string
	NotionDatabaseID         string
	NotionTitleProperty      string
	NotionAmountProperty     string
	NotionCategoryProperty   string
	NotionPaymentProperty    string
	NotionDateProperty       string
	NotionPaymentMultiSelect bool

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// AMQP events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Idempotency
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	IdempotencyTTL time.Duration

	// WhatsApp Cloud API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppAPIVersion    string
	WhatsAppAPIBaseURL    string
	HTTPClientTimeout     time.Duration

	// Worker
	MirrorBackend string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:          getEnv("DATA_BACKEND", "memory"),
		MessageSchema:        getEnv("MESSAGE_SCHEMA", "4"),
		AggregateDimension:   getEnv("AGGREGATE_DIMENSION", "category"),
		DefaultPaymentType:   getEnv("DEFAULT_PAYMENT_TYPE", core.DefaultPaymentType),
		LabelLanguage:        getEnv("LABEL_LANGUAGE", "pt-BR"),
		NotifyOnStoreFailure: getEnvBool("NOTIFY_ON_STORE_FAILURE", true),

		CurrencySymbol:     getEnv("CURRENCY_SYMBOL", "R$"),
		ThousandsSeparator: getEnv("CURRENCY_THOUSANDS_SEPARATOR", "."),
		DecimalSeparator:   getEnv("CURRENCY_DECIMAL_SEPARATOR", ","),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/zapledger.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Gastos"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		NotionToken:              getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID:         getEnv("NOTION_DATABASE_ID", ""),
		NotionTitleProperty:      getEnv("NOTION_TITLE_PROPERTY", ""),
		NotionAmountProperty:     getEnv("NOTION_AMOUNT_PROPERTY", ""),
		NotionCategoryProperty:   getEnv("NOTION_CATEGORY_PROPERTY", ""),
		NotionPaymentProperty:    getEnv("NOTION_PAYMENT_PROPERTY", ""),
		NotionDateProperty:       getEnv("NOTION_DATE_PROPERTY", ""),
		NotionPaymentMultiSelect: getEnvBool("NOTION_PAYMENT_MULTI_SELECT", false),

		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "zapledger"),
		MongoCollection: getEnv("MONGO_COLLECTION", "transactions"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "zapledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_recorded"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 72*time.Hour),

		WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAPIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com"),
		HTTPClientTimeout:     getEnvDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),

		MirrorBackend: getEnv("MIRROR_BACKEND", "sheets"),
	}
}

// Schema returns the configured message schema, four-field if invalid.
func (c *Config) Schema() core.Schema {
	s, err := core.ParseSchema(c.MessageSchema)
	if err != nil {
		return core.FourField
	}
	return s
}

// Dimension returns the configured aggregation dimension, category if invalid.
func (c *Config) Dimension() core.Dimension {
	d, err := core.ParseDimension(c.AggregateDimension)
	if err != nil {
		return core.DimensionCategory
	}
	return d
}

// Language returns the label casing language, Brazilian Portuguese if invalid.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.LabelLanguage)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if _, err := core.ParseSchema(c.MessageSchema); err != nil {
		errs = append(errs, fmt.Sprintf("invalid MESSAGE_SCHEMA '%s': must be 3 or 4", c.MessageSchema))
	}
	if _, err := core.ParseDimension(c.AggregateDimension); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AGGREGATE_DIMENSION '%s': must be category or paymentType", c.AggregateDimension))
	}
	if _, err := language.Parse(c.LabelLanguage); err != nil {
		errs = append(errs, fmt.Sprintf("invalid LABEL_LANGUAGE '%s': %v", c.LabelLanguage, err))
	}
	if c.DecimalSeparator == "" {
		errs = append(errs, "CURRENCY_DECIMAL_SEPARATOR cannot be empty")
	} else if c.DecimalSeparator == c.ThousandsSeparator {
		errs = append(errs, "currency decimal and thousands separators must differ")
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	errs = append(errs, c.validateBackend(c.DataBackend)...)

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.IdempotencyTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid idempotency ttl %v: must be at least 1 minute", c.IdempotencyTTL))
	}

	hasToken := c.WhatsAppToken != ""
	hasPhone := c.WhatsAppPhoneNumberID != ""
	if hasToken != hasPhone {
		errs = append(errs, "WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set together")
	}
	if c.WhatsAppAPIBaseURL != "" {
		if u, err := url.Parse(c.WhatsAppAPIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid WHATSAPP_API_BASE_URL '%s'", c.WhatsAppAPIBaseURL))
		}
	}
	if c.HTTPClientTimeout <= 0 {
		errs = append(errs, "HTTP_CLIENT_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWorker checks what the mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	var errs []string
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required by the worker")
	}
	if !slices.Contains(validBackends, c.MirrorBackend) {
		errs = append(errs, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, validBackends))
	} else {
		errs = append(errs, c.validateBackend(c.MirrorBackend)...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// validateBackend returns the problems with the settings backend needs.
func (c *Config) validateBackend(backend string) []string {
	var errs []string
	switch backend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
			break
		}
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "GOOGLE_SPREADSHEET_ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case "notion":
		if c.NotionToken == "" {
			errs = append(errs, "NOTION_TOKEN is required when using notion backend")
		}
		if c.NotionDatabaseID == "" {
			errs = append(errs, "NOTION_DATABASE_ID is required when using notion backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, "MONGO_URI is required when using mongo backend")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			errs = append(errs, "MONGO_DATABASE and MONGO_COLLECTION cannot be empty when using mongo backend")
		}
	}
	return errs
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
