package backend

import (
	"fmt"
	"time"

	"zapledger/internal/config"
	"zapledger/internal/docstore"
	"zapledger/internal/notion"
	gsheet "zapledger/internal/sheets/google"
)

// Config holds everything the factory needs for any backend type.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	Sheets       gsheet.Config
	Notion       notion.Config
	Mongo        docstore.Config

	// Idempotency guard for backends without native dedupe. An empty
	// RedisAddr selects the in-process guard.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	IdempotencyTTL time.Duration
}

// FromAppConfig builds the factory config for the primary backend.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return fromAppConfig(appConfig, appConfig.DataBackend)
}

// MirrorFromAppConfig builds the factory config for the worker's mirror.
func MirrorFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return fromAppConfig(appConfig, appConfig.MirrorBackend)
}

func fromAppConfig(c *config.Config, backend string) (Config, error) {
	bt := BackendType(backend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", backend)
	}
	return Config{
		Type:         bt,
		SQLiteDBPath: c.SQLiteDBPath,
		Sheets: gsheet.Config{
			SpreadsheetID:   c.GoogleSpreadsheetID,
			SheetName:       c.GoogleSheetName,
			CredentialsJSON: c.GoogleServiceAccountJSON,
			CredentialsFile: c.GoogleServiceAccountFile,
		},
		Notion: notion.Config{
			Token:      c.NotionToken,
			DatabaseID: c.NotionDatabaseID,
			Properties: notion.Properties{
				Title:              c.NotionTitleProperty,
				Amount:             c.NotionAmountProperty,
				Category:           c.NotionCategoryProperty,
				PaymentType:        c.NotionPaymentProperty,
				Date:               c.NotionDateProperty,
				PaymentMultiSelect: c.NotionPaymentMultiSelect,
			},
		},
		Mongo: docstore.Config{
			URI:        c.MongoURI,
			Database:   c.MongoDatabase,
			Collection: c.MongoCollection,
			Timeout:    c.HTTPClientTimeout,
		},
		RedisAddr:      c.RedisAddr,
		RedisPassword:  c.RedisPassword,
		RedisDB:        c.RedisDB,
		IdempotencyTTL: c.IdempotencyTTL,
	}, nil
}

// GetBackendTypeStrings returns all valid backend type strings.
func GetBackendTypeStrings() []string {
	return []string{
		MemoryBackend.String(),
		SQLiteBackend.String(),
		SheetsBackend.String(),
		NotionBackend.String(),
		MongoBackend.String(),
	}
}
