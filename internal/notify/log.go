// Package notify holds Notifier implementations that do not need a
// messaging channel.
package notify

import (
	"context"

	"zapledger/internal/log"
)

// LogNotifier writes replies to the log. Used when no WhatsApp
// credentials are configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentWebhook)}
}

func (n *LogNotifier) Send(ctx context.Context, to, text string) error {
	n.logger.InfoContext(ctx, "Reply", log.FieldSender, to, log.FieldOperation, log.OpNotify, "text", text)
	return nil
}
