package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"zapledger/internal/core"
)

func validConfig() Config {
	return Config{
		Port:                 "8080",
		RateLimitPerMinute:   60,
		DataBackend:          "memory",
		MessageSchema:        "4",
		AggregateDimension:   "category",
		LabelLanguage:        "pt-BR",
		NotifyOnStoreFailure: true,
		CurrencySymbol:       "R$",
		ThousandsSeparator:   ".",
		DecimalSeparator:     ",",
		IdempotencyTTL:       time.Hour,
		HTTPClientTimeout:    10 * time.Second,
		WhatsAppAPIBaseURL:   "https://graph.facebook.com",
		MongoDatabase:        "zapledger",
		MongoCollection:      "transactions",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{name: "valid memory config", mutate: func(*Config) {}},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "postgres" },
			errorString: "invalid data backend 'postgres'",
		},
		{
			name:        "invalid schema",
			mutate:      func(c *Config) { c.MessageSchema = "5" },
			errorString: "invalid MESSAGE_SCHEMA '5'",
		},
		{
			name:        "invalid dimension",
			mutate:      func(c *Config) { c.AggregateDimension = "description" },
			errorString: "invalid AGGREGATE_DIMENSION 'description'",
		},
		{
			name:        "same separators",
			mutate:      func(c *Config) { c.ThousandsSeparator = "," },
			errorString: "separators must differ",
		},
		{
			name:        "sheets without credentials",
			mutate:      func(c *Config) { c.DataBackend = "sheets"; c.GoogleSpreadsheetID = "abc" },
			errorString: "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE",
		},
		{
			name: "sheets with missing credentials file",
			mutate: func(c *Config) {
				c.DataBackend = "sheets"
				c.GoogleSpreadsheetID = "abc"
				c.GoogleServiceAccountFile = "/nope/sa.json"
			},
			errorString: "Google service account file does not exist",
		},
		{
			name:        "notion without token",
			mutate:      func(c *Config) { c.DataBackend = "notion"; c.NotionDatabaseID = "db" },
			errorString: "NOTION_TOKEN is required",
		},
		{
			name:        "mongo without uri",
			mutate:      func(c *Config) { c.DataBackend = "mongo" },
			errorString: "MONGO_URI is required",
		},
		{
			name:        "bad amqp scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://broker"; c.AMQPExchange = "x"; c.AMQPQueue = "q" },
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "amqp without queue",
			mutate:      func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "x" },
			errorString: "AMQP queue name cannot be empty",
		},
		{
			name:        "whatsapp token without phone id",
			mutate:      func(c *Config) { c.WhatsAppToken = "tok" },
			errorString: "must be set together",
		},
		{
			name:        "short idempotency ttl",
			mutate:      func(c *Config) { c.IdempotencyTTL = time.Second },
			errorString: "invalid idempotency ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorString)
			}
			if !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.MessageSchema = "x"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "\n- ") != 2 {
		t.Errorf("want both problems listed, got %q", err.Error())
	}
}

func TestConfig_ValidateSQLiteCreatesDir(t *testing.T) {
	cfg := validConfig()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "nested", "ledger.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfig_ValidateWorker(t *testing.T) {
	cfg := validConfig()
	cfg.MirrorBackend = "memory"
	if err := cfg.ValidateWorker(); err == nil || !strings.Contains(err.Error(), "AMQP_URL is required") {
		t.Errorf("err = %v", err)
	}
	cfg.AMQPURL = "amqp://localhost"
	if err := cfg.ValidateWorker(); err != nil {
		t.Errorf("err = %v", err)
	}
	cfg.MirrorBackend = "notion"
	if err := cfg.ValidateWorker(); err == nil {
		t.Error("notion mirror without token accepted")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("MESSAGE_SCHEMA", "three-field")
	t.Setenv("AGGREGATE_DIMENSION", "paymentType")
	t.Setenv("NOTIFY_ON_STORE_FAILURE", "false")
	t.Setenv("IDEMPOTENCY_TTL", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Port != "9090" || cfg.DataBackend != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Schema() != core.ThreeField || cfg.Dimension() != core.DimensionPaymentType {
		t.Errorf("schema = %v dimension = %v", cfg.Schema(), cfg.Dimension())
	}
	if cfg.NotifyOnStoreFailure || cfg.IdempotencyTTL != 2*time.Hour || cfg.RedisDB != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATA_BACKEND", "MESSAGE_SCHEMA", "AGGREGATE_DIMENSION", "NOTIFY_ON_STORE_FAILURE", "LABEL_LANGUAGE", "DEFAULT_PAYMENT_TYPE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.DataBackend != "memory" || cfg.Schema() != core.FourField || cfg.Dimension() != core.DimensionCategory {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.NotifyOnStoreFailure {
		t.Error("store failures should be reported by default")
	}
	if cfg.Language() != language.BrazilianPortuguese || cfg.DefaultPaymentType != core.DefaultPaymentType {
		t.Errorf("language = %v payment = %q", cfg.Language(), cfg.DefaultPaymentType)
	}
}
