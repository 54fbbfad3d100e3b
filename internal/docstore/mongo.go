// Package docstore keeps the ledger in a MongoDB collection. Appends are
// single insertOne calls; reads run an aggregation pipeline matching the
// folded dimension key.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
)

const backendName = "mongo"

var _ ledger.Store = (*Store)(nil)

type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// document is the persisted record shape.
type document struct {
	ID             string  `bson:"_id"`
	IdempotencyKey string  `bson:"idempotencyKey,omitempty"`
	Description    string  `bson:"description"`
	Amount         float64 `bson:"amount"`
	Category       string  `bson:"category"`
	CategoryKey    string  `bson:"categoryKey"`
	PaymentType    string  `bson:"paymentType"`
	PaymentTypeKey string  `bson:"paymentTypeKey"`
	SenderID       string  `bson:"senderId,omitempty"`
	Timestamp      string  `bson:"timestamp"`
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, pings and makes sure the indexes exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, errors.New("missing mongo uri")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "categoryKey", Value: 1}}},
		{Keys: bson.D{{Key: "paymentTypeKey", Value: 1}}},
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return &Store{client: client, coll: coll}, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func newDocument(tx core.Transaction) document {
	return document{
		ID:             tx.ID,
		IdempotencyKey: tx.IdempotencyKey,
		Description:    tx.Description,
		Amount:         tx.Amount,
		Category:       tx.Category,
		CategoryKey:    core.FoldKey(tx.Category),
		PaymentType:    tx.PaymentType,
		PaymentTypeKey: core.FoldKey(tx.PaymentType),
		SenderID:       tx.SenderID,
		Timestamp:      tx.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// Append inserts one document. A duplicate idempotency key is reported as
// a duplicate receipt pointing at the stored document.
func (s *Store) Append(ctx context.Context, tx core.Transaction) (ledger.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.BackendRejected, backendName, err)
	}
	_, err := s.coll.InsertOne(ctx, newDocument(tx))
	if err == nil {
		return ledger.Receipt{Ref: tx.ID}, nil
	}
	if !mongo.IsDuplicateKeyError(err) || tx.IdempotencyKey == "" {
		return ledger.Receipt{}, core.NewStoreError(core.WriteFailed, backendName, fmt.Errorf("insert transaction: %w", err))
	}

	var existing struct {
		ID string `bson:"_id"`
	}
	err = s.coll.FindOne(ctx, bson.D{{Key: "idempotencyKey", Value: tx.IdempotencyKey}}).Decode(&existing)
	if err != nil {
		return ledger.Receipt{}, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("lookup duplicate: %w", err))
	}
	return ledger.Receipt{Ref: existing.ID, Duplicate: true}, nil
}

// Query returns the raw amounts of matching documents.
func (s *Store) Query(ctx context.Context, dim core.Dimension, value string) ([]float64, error) {
	field, err := keyField(dim)
	if err != nil {
		return nil, core.NewStoreError(core.BackendRejected, backendName, err)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: core.FoldKey(value)}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}, {Key: "amount", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("aggregate amounts: %w", err))
	}
	defer cur.Close(ctx)

	var out []float64
	for cur.Next(ctx) {
		v, ok := amountFromRaw(cur.Current.Lookup("amount"))
		if !ok {
			slog.WarnContext(ctx, "Skipping malformed amount", "dimension", dim, "value", value)
			continue
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, core.NewStoreError(core.ReadFailed, backendName, fmt.Errorf("iterate amounts: %w", err))
	}
	return out, nil
}

func keyField(dim core.Dimension) (string, error) {
	switch dim {
	case core.DimensionCategory:
		return "categoryKey", nil
	case core.DimensionPaymentType:
		return "paymentTypeKey", nil
	}
	return "", fmt.Errorf("unknown dimension %q", dim)
}

// amountFromRaw accepts the numeric BSON types and numeric strings that a
// hand-edited collection may contain.
func amountFromRaw(rv bson.RawValue) (float64, bool) {
	var v float64
	switch rv.Type {
	case bsontype.Double:
		v = rv.Double()
	case bsontype.Int32:
		v = float64(rv.Int32())
	case bsontype.Int64:
		v = float64(rv.Int64())
	case bsontype.Decimal128:
		f, err := strconv.ParseFloat(rv.Decimal128().String(), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case bsontype.String:
		f, err := core.ParseAmount(rv.StringValue())
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
