package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"zapledger/internal/core"
)

const transactionRecordedType = "transaction.recorded"

// TransactionRecorded announces one newly stored ledger entry. It carries
// the full record so consumers never read back from the primary backend.
type TransactionRecorded struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Description    string    `json:"description"`
	Amount         float64   `json:"amount"`
	Category       string    `json:"category"`
	PaymentType    string    `json:"payment_type"`
	Timestamp      time.Time `json:"timestamp"`
	SenderID       string    `json:"sender_id,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
}

func NewTransactionRecorded(tx core.Transaction) *TransactionRecorded {
	return &TransactionRecorded{
		Type:           transactionRecordedType,
		ID:             tx.ID,
		IdempotencyKey: tx.IdempotencyKey,
		Description:    tx.Description,
		Amount:         tx.Amount,
		Category:       tx.Category,
		PaymentType:    tx.PaymentType,
		Timestamp:      tx.Timestamp,
		SenderID:       tx.SenderID,
		PublishedAt:    time.Now().UTC(),
	}
}

// Transaction rebuilds the ledger entry.
func (m *TransactionRecorded) Transaction() core.Transaction {
	return core.Transaction{
		ID:             m.ID,
		IdempotencyKey: m.IdempotencyKey,
		Description:    m.Description,
		Amount:         m.Amount,
		Category:       m.Category,
		PaymentType:    m.PaymentType,
		Timestamp:      m.Timestamp,
		SenderID:       m.SenderID,
	}
}

func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type != transactionRecordedType {
		return nil, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message has no transaction id")
	}
	return &msg, nil
}
