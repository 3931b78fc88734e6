package notification

import (
	"context"

	"github.com/academypay/academypay/internal/logger"
)

// Template names are a contract with the delivery service.
const (
	TemplatePaymentFailed       = "payment_failed"
	TemplateSubscriptionExpired = "subscription_expired"
)

// Sender delivers user notifications. Fire-and-forget: failures are logged
// but never block billing state transitions.
type Sender interface {
	Send(ctx context.Context, template string, recipientEmail string, variables map[string]string)
}

// LogSender is the default sender when no delivery backend is wired. It
// records the notification in the logs so operators can trace it.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, template string, recipientEmail string, variables map[string]string) {
	s.logger.Infow("notification sent",
		"template", template,
		"recipient", recipientEmail,
		"variables", variables,
	)
}
