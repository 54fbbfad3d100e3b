package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"zapledger/internal/config"
	"zapledger/internal/core"
	"zapledger/internal/services"
)

func sampleTx(key string) core.Transaction {
	return core.Transaction{
		ID:             "tx-" + key,
		IdempotencyKey: key,
		Description:    "Mercado",
		Amount:         10,
		Category:       "Casa",
		PaymentType:    "Pix",
		Timestamp:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	if _, ok := res.Store.(*services.DeduplicatingStore); ok {
		t.Error("memory dedupes on its own and should not be wrapped")
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if _, err := res.Store.Append(ctx, sampleTx("k1")); err != nil {
		t.Fatal(err)
	}
	rec, err := res.Store.Append(ctx, sampleTx("k1"))
	if err != nil || !rec.Duplicate {
		t.Errorf("second append = %+v, %v", rec, err)
	}
}

func TestCreateBackend_Invalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "csv"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SheetsBackend}); err == nil {
		t.Error("sheets without spreadsheet id should fail")
	}
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: NotionBackend}); err == nil {
		t.Error("notion without token should fail")
	}
}

func TestWithGuard_FallsBackToLRU(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil).(*DefaultFactory)

	res, err := f.withGuard(ctx, Config{RedisAddr: "127.0.0.1:1", IdempotencyTTL: time.Hour},
		&BackendResult{Store: &countingStore{}})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	inner := res.Store.(*services.DeduplicatingStore)
	if _, err := inner.Append(ctx, sampleTx("dup")); err != nil {
		t.Fatal(err)
	}
	rec, _ := inner.Append(ctx, sampleTx("dup"))
	if !rec.Duplicate {
		t.Error("second append should be a duplicate")
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:              "notion",
		MirrorBackend:            "sheets",
		NotionToken:              "secret",
		NotionDatabaseID:         "db",
		NotionPaymentMultiSelect: true,
		GoogleSpreadsheetID:      "sheet",
		IdempotencyTTL:           time.Hour,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != NotionBackend || cfg.Notion.Token != "secret" || !cfg.Notion.Properties.PaymentMultiSelect {
		t.Errorf("cfg = %+v", cfg)
	}
	mirror, err := MirrorFromAppConfig(app)
	if err != nil || mirror.Type != SheetsBackend || mirror.Sheets.SpreadsheetID != "sheet" {
		t.Errorf("mirror = %+v, %v", mirror, err)
	}
	app.DataBackend = "csv"
	if _, err := FromAppConfig(app); err == nil {
		t.Error("invalid backend accepted")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config accepted")
	}
}

func TestBackendType(t *testing.T) {
	if !MongoBackend.NativeIdempotency() || SheetsBackend.NativeIdempotency() || NotionBackend.NativeIdempotency() {
		t.Error("unexpected idempotency classification")
	}
	if len(GetBackendTypeStrings()) != 5 {
		t.Error("expected five backend types")
	}
}
