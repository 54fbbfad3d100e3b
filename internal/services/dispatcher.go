package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"zapledger/internal/core"
	"zapledger/internal/ledger"
	"zapledger/internal/log"
	"zapledger/internal/reply"
)

// State is a step of the per-message pipeline.
type State int

const (
	Received State = iota
	Parsed
	Validated
	Stored
	Aggregated
	Replied
	ParseFailed
	ValidationFailed
	StoreFailed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case Parsed:
		return "parsed"
	case Validated:
		return "validated"
	case Stored:
		return "stored"
	case Aggregated:
		return "aggregated"
	case Replied:
		return "replied"
	case ParseFailed:
		return "parse_failed"
	case ValidationFailed:
		return "validation_failed"
	case StoreFailed:
		return "store_failed"
	default:
		return "unknown"
	}
}

// Notifier delivers a reply to the sender.
type Notifier interface {
	Send(ctx context.Context, to, text string) error
}

// EventPublisher announces recorded transactions to other consumers.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error
}

// Outcome describes what happened to one message.
type Outcome struct {
	Path        []State
	Transaction core.Transaction
	Total       float64
	Reply       string // empty when nothing was sent
	Err         error  // the error that ended the happy path, if any
	Duplicate   bool
}

// Final returns the last state reached.
func (o Outcome) Final() State {
	if len(o.Path) == 0 {
		return Received
	}
	return o.Path[len(o.Path)-1]
}

// DispatcherConfig holds the per-deployment pipeline settings.
type DispatcherConfig struct {
	Schema               core.Schema
	Dimension            core.Dimension
	NotifyOnStoreFailure bool
}

// Dispatcher drives one inbound message through parse, validate, store,
// aggregate and reply. It keeps no state between messages.
type Dispatcher struct {
	cfg       DispatcherConfig
	validator *core.Validator
	store     ledger.Store
	agg       *Aggregator
	format    *reply.Formatter
	notifier  Notifier
	events    EventPublisher

	now   func() time.Time
	newID func() string
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEvents publishes every newly recorded transaction.
func WithEvents(p EventPublisher) DispatcherOption {
	return func(d *Dispatcher) { d.events = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// WithIDs overrides transaction id generation.
func WithIDs(newID func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newID = newID }
}

func NewDispatcher(
	cfg DispatcherConfig,
	validator *core.Validator,
	store ledger.Store,
	format *reply.Formatter,
	notifier Notifier,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		validator: validator,
		store:     store,
		agg:       NewAggregator(store),
		format:    format,
		notifier:  notifier,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles msg to completion. Failures are reported in the
// Outcome and logged; Dispatch never returns an error of its own.
func (d *Dispatcher) Dispatch(ctx context.Context, msg core.InboundMessage) Outcome {
	out := Outcome{Path: []State{Received}}
	logger := log.FromContext(ctx).WithComponent(log.ComponentDispatcher).
		With(log.FieldMessageID, msg.ID, log.FieldSender, msg.From)

	fields, err := core.ParseMessage(msg.Text, d.cfg.Schema)
	if err != nil {
		out.Path = append(out.Path, ParseFailed)
		out.Err = err
		logger.InfoContext(ctx, "Rejected message", "error", err)
		return d.reply(ctx, msg.From, out, d.format.WrongArity())
	}
	out.Path = append(out.Path, Parsed)

	// Ingestion time, not send time: redeliveries can arrive hours late.
	tx, err := d.validator.Validate(fields, core.Meta{
		ID:             d.newID(),
		IdempotencyKey: msg.ID,
		SenderID:       msg.From,
		Timestamp:      d.now().UTC(),
	})
	if err != nil {
		out.Path = append(out.Path, ValidationFailed)
		out.Err = err
		logger.InfoContext(ctx, "Rejected message", "error", err)
		text, _ := d.format.ForError(err)
		return d.reply(ctx, msg.From, out, text)
	}
	out.Path = append(out.Path, Validated)
	out.Transaction = tx

	rec, err := d.store.Append(ctx, tx)
	if err != nil {
		out.Path = append(out.Path, StoreFailed)
		out.Err = err
		logger.ErrorContext(ctx, "Failed to store transaction", log.NewFields().
			WithError(err).
			WithOperation(log.OpAppend).
			WithTransaction(tx.ID, tx.Category, tx.PaymentType, tx.Amount).
			ToSlice()...)
		if !d.cfg.NotifyOnStoreFailure {
			out.Path = append(out.Path, Replied)
			return out
		}
		return d.reply(ctx, msg.From, out, d.format.StoreFailure(tx))
	}
	out.Path = append(out.Path, Stored)

	if rec.Duplicate {
		out.Duplicate = true
		out.Path = append(out.Path, Replied)
		logger.InfoContext(ctx, "Duplicate delivery ignored", "ref", rec.Ref)
		return out
	}
	logger.InfoContext(ctx, "Transaction stored", "ref", rec.Ref, log.FieldTransactionID, tx.ID)
	d.publish(ctx, tx)

	label := d.cfg.Dimension.Value(tx)
	total, err := d.agg.Sum(ctx, d.cfg.Dimension, label)
	if err != nil {
		// The entry is stored; only the total is missing.
		out.Err = err
		logger.WarnContext(ctx, "Failed to aggregate total", log.FieldError, err,
			log.FieldOperation, log.OpQuery, "dimension", d.cfg.Dimension, "value", label)
		return d.reply(ctx, msg.From, out, d.format.RecordedWithoutTotal(tx, d.cfg.Dimension))
	}
	out.Path = append(out.Path, Aggregated)
	out.Total = total

	return d.reply(ctx, msg.From, out, d.format.Recorded(tx, d.cfg.Dimension, total))
}

func (d *Dispatcher) reply(ctx context.Context, to string, out Outcome, text string) Outcome {
	out.Path = append(out.Path, Replied)
	out.Reply = text
	if d.notifier == nil || text == "" {
		return out
	}
	if err := d.notifier.Send(ctx, to, text); err != nil {
		logger := log.FromContext(ctx).WithComponent(log.ComponentDispatcher)
		var ne *core.NotificationError
		if errors.As(err, &ne) {
			logger.WarnContext(ctx, "Reply not delivered", log.FieldSender, ne.Recipient,
				log.FieldStatusCode, ne.Status, log.FieldError, ne.Err)
		} else {
			logger.WarnContext(ctx, "Reply not delivered", log.FieldSender, to, log.FieldError, err)
		}
	}
	return out
}

func (d *Dispatcher) publish(ctx context.Context, tx core.Transaction) {
	if d.events == nil {
		return
	}
	if err := d.events.PublishTransactionRecorded(ctx, tx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentDispatcher).ErrorContext(ctx,
			"Failed to publish transaction event", log.FieldTransactionID, tx.ID, log.FieldError, err)
	}
}
