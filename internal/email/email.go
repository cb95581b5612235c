package email

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/internal/kafka"
)

// Sender is the email collaborator boundary. The worker forwards every
// consumed notification here; actual SMTP delivery lives outside this core.
type Sender struct {
	log *logrus.Logger
}

func NewSender(log *logrus.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.NotificationEvent) error {
	s.log.WithFields(logrus.Fields{
		"type":      event.Type,
		"recipient": event.Recipient,
		"tran_id":   event.TransactionID,
		"event_id":  event.EventID,
	}).Info("dispatching notification email")
	return nil
}
