// Package notion stores the ledger as pages of a Notion database.
//
// Each transaction is one page with a title (description), a number
// (amount), a select (category), a select or multi-select (payment type)
// and a date. Notion filters are case-sensitive, so Query pages through
// the database and filters client side.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jomei/notionapi"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
)

const (
	backendName = "notion"
	pageSize    = 100
)

var _ ledger.Store = (*Store)(nil)

// Properties names the database columns.
type Properties struct {
	Title       string
	Amount      string
	Category    string
	PaymentType string
	Date        string
	// PaymentMultiSelect stores the payment type as a one-element
	// multi-select instead of a select.
	PaymentMultiSelect bool
}

// DefaultProperties are the property names used when none are configured.
func DefaultProperties() Properties {
	return Properties{
		Title:       "Descrição",
		Amount:      "Valor",
		Category:    "Categoria",
		PaymentType: "Pagamento",
		Date:        "Data",
	}
}

// Config holds the integration token and target database.
type Config struct {
	Token      string
	DatabaseID string
	Properties Properties
}

// pages is the subset of the Notion client the store needs.
type pages interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

type databases interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type Store struct {
	pages      pages
	databases  databases
	databaseID notionapi.DatabaseID
	props      Properties
}

func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("missing notion token")
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" {
		return nil, errors.New("missing notion database id")
	}
	client := notionapi.NewClient(notionapi.Token(cfg.Token))
	return newStore(client.Page, client.Database, cfg), nil
}

func newStore(p pages, d databases, cfg Config) *Store {
	props := cfg.Properties
	def := DefaultProperties()
	if props.Title == "" {
		props.Title = def.Title
	}
	if props.Amount == "" {
		props.Amount = def.Amount
	}
	if props.Category == "" {
		props.Category = def.Category
	}
	if props.PaymentType == "" {
		props.PaymentType = def.PaymentType
	}
	if props.Date == "" {
		props.Date = def.Date
	}
	return &Store{pages: p, databases: d, databaseID: notionapi.DatabaseID(cfg.DatabaseID), props: props}
}

// Append creates one page.
func (s *Store) Append(ctx context.Context, tx core.Transaction) (ledger.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.BackendRejected, backendName, err)
	}
	page, err := s.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: s.propertiesFor(tx),
	})
	if err != nil {
		return ledger.Receipt{}, core.NewStoreError(classify(err, core.WriteFailed), backendName,
			fmt.Errorf("create page: %w", err))
	}
	return ledger.Receipt{Ref: string(page.ID)}, nil
}

// Query pages through the whole database.
func (s *Store) Query(ctx context.Context, dim core.Dimension, value string) ([]float64, error) {
	var (
		out    []float64
		cursor notionapi.Cursor
	)
	for {
		resp, err := s.databases.Query(ctx, s.databaseID, &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, core.NewStoreError(classify(err, core.ReadFailed), backendName,
				fmt.Errorf("query database: %w", err))
		}
		for _, page := range resp.Results {
			if !s.matches(page.Properties, dim, value) {
				continue
			}
			if amount, ok := numberOf(page.Properties, s.props.Amount); ok {
				out = append(out, amount)
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		cursor = resp.NextCursor
	}
}

func (s *Store) propertiesFor(tx core.Transaction) notionapi.Properties {
	date := notionapi.Date(tx.Timestamp)
	props := notionapi.Properties{
		s.props.Title: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: tx.Description}}},
		},
		s.props.Amount: notionapi.NumberProperty{Number: tx.Amount},
		s.props.Category: notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category},
		},
		s.props.Date: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
	}
	if s.props.PaymentMultiSelect {
		props[s.props.PaymentType] = notionapi.MultiSelectProperty{
			MultiSelect: []notionapi.Option{{Name: tx.PaymentType}},
		}
	} else {
		props[s.props.PaymentType] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.PaymentType},
		}
	}
	return props
}

func (s *Store) matches(props notionapi.Properties, dim core.Dimension, value string) bool {
	name := s.props.PaymentType
	if dim == core.DimensionCategory {
		name = s.props.Category
	}
	value = strings.TrimSpace(value)
	for _, label := range labelsOf(props, name) {
		if strings.EqualFold(strings.TrimSpace(label), value) {
			return true
		}
	}
	return false
}

// labelsOf reads a select or multi-select property; a multi-select
// matches when any option matches ("contains").
func labelsOf(props notionapi.Properties, name string) []string {
	switch p := props[name].(type) {
	case *notionapi.SelectProperty:
		return []string{p.Select.Name}
	case notionapi.SelectProperty:
		return []string{p.Select.Name}
	case *notionapi.MultiSelectProperty:
		return optionNames(p.MultiSelect)
	case notionapi.MultiSelectProperty:
		return optionNames(p.MultiSelect)
	}
	return nil
}

func optionNames(opts []notionapi.Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Name)
	}
	return out
}

// numberOf reads a number property. Pages where the column is absent or
// has another type are skipped by the caller.
func numberOf(props notionapi.Properties, name string) (float64, bool) {
	switch p := props[name].(type) {
	case *notionapi.NumberProperty:
		return p.Number, true
	case notionapi.NumberProperty:
		return p.Number, true
	}
	return 0, false
}

func classify(err error, fallback core.StoreKind) core.StoreKind {
	var nerr *notionapi.Error
	if errors.As(err, &nerr) {
		switch nerr.Status {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return core.BackendRejected
		}
	}
	return fallback
}
