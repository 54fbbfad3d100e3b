package worker

import (
	"context"
	"fmt"

	"zapledger/internal/amqp"
	"zapledger/internal/ledger"
	"zapledger/internal/log"
)

// MirrorWorker copies recorded transactions into a secondary ledger.
type MirrorWorker struct {
	mirror ledger.Appender
	logger *log.Logger
}

func NewMirrorWorker(mirror ledger.Appender, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Handle appends the transaction carried by msg. The transaction id is the
// idempotency key on the mirror, so a redelivered event is stored once.
// A returned error makes the consumer requeue the message.
func (w *MirrorWorker) Handle(ctx context.Context, msg *amqp.TransactionRecorded) error {
	tx := msg.Transaction()
	tx.IdempotencyKey = msg.ID

	receipt, err := w.mirror.Append(ctx, tx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror transaction",
			log.FieldTransactionID, msg.ID,
			log.FieldOperation, log.OpMirror,
			log.FieldError, err)
		return fmt.Errorf("mirror transaction %s: %w", msg.ID, err)
	}

	if receipt.Duplicate {
		w.logger.InfoContext(ctx, "Transaction already mirrored",
			log.FieldTransactionID, msg.ID, "ref", receipt.Ref)
		return nil
	}
	w.logger.InfoContext(ctx, "Transaction mirrored",
		log.NewFields().
			WithOperation(log.OpMirror).
			WithTransaction(msg.ID, msg.Category, msg.PaymentType, msg.Amount).
			ToSlice()...)
	return nil
}
