package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"zapledger/internal/core"
	"zapledger/internal/ledger"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const backendName = "sheets"

// Column layout of the ledger sheet, A..G.
const (
	colTimestamp = iota
	colDescription
	colAmount
	colCategory
	colPaymentType
	colID
	colIdempotencyKey
	numColumns
)

var _ ledger.Store = (*Client)(nil)

// Config locates the ledger sheet and its credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client is the spreadsheet ledger. Values come back as loosely formatted
// strings and are re-parsed on read.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// New creates a Sheets client using Service Account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Gastos"
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Append writes one row at the end of the sheet.
func (c *Client) Append(ctx context.Context, tx core.Transaction) (ledger.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.BackendRejected, backendName, err)
	}
	if c.svc == nil {
		return ledger.Receipt{}, core.NewStoreError(core.WriteFailed, backendName, errors.New("sheets service not initialized"))
	}

	// RAW keeps sender text literal: no formulas, no date coercion.
	vr := &gsheet.ValueRange{Values: [][]any{rowFor(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.fullRange(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return ledger.Receipt{}, core.NewStoreError(classify(err, core.WriteFailed), backendName,
			fmt.Errorf("append to sheet %s: %w", c.sheet, err))
	}

	ref := c.sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ledger.Receipt{Ref: ref}, nil
}

// Query reads the whole sheet and filters client side. Cells come back
// unformatted, so numeric amounts are float64 whatever the column format;
// only amounts stored as text are re-parsed.
func (c *Client) Query(ctx context.Context, dim core.Dimension, value string) ([]float64, error) {
	if c.svc == nil {
		return nil, core.NewStoreError(core.ReadFailed, backendName, errors.New("sheets service not initialized"))
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.fullRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, core.NewStoreError(classify(err, core.ReadFailed), backendName, fmt.Errorf("read %s: %w", c.fullRange(), err))
	}
	return amountsFromRows(resp.Values, dim, value), nil
}

func (c *Client) fullRange() string {
	return fmt.Sprintf("%s!A:G", c.sheet)
}

func rowFor(tx core.Transaction) []any {
	row := make([]any, numColumns)
	row[colTimestamp] = tx.Timestamp.Format(time.RFC3339)
	row[colDescription] = tx.Description
	row[colAmount] = tx.Amount
	row[colCategory] = tx.Category
	row[colPaymentType] = tx.PaymentType
	row[colID] = tx.ID
	row[colIdempotencyKey] = tx.IdempotencyKey
	return row
}

// amountsFromRows filters a values matrix by dimension. Header rows and
// rows with unreadable amounts fall out because their amount does not parse.
func amountsFromRows(values [][]any, dim core.Dimension, value string) []float64 {
	col := colPaymentType
	if dim == core.DimensionCategory {
		col = colCategory
	}
	value = strings.TrimSpace(value)
	var out []float64
	for _, row := range values {
		cols := toStrings(row)
		if !strings.EqualFold(safeGet(cols, col), value) {
			continue
		}
		if colAmount >= len(row) {
			continue
		}
		amount, ok := cellAmount(row[colAmount])
		if !ok {
			continue
		}
		out = append(out, amount)
	}
	return out
}

// cellAmount reads an unformatted amount cell.
func cellAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return parseSheetAmount(n)
	}
	return 0, false
}

// classify maps Sheets API failures onto the store error taxonomy.
// Client errors mean the sheet refused the request; anything else keeps
// the caller's kind.
func classify(err error, fallback core.StoreKind) core.StoreKind {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return core.BackendRejected
		}
	}
	return fallback
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
