package payments

import (
	"time"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/kafka"
)

func notificationEvent(notificationType string, p *domain.Payment) kafka.NotificationEvent {
	return kafka.NotificationEvent{
		Type:          notificationType,
		Recipient:     p.UserID,
		TransactionID: p.TransactionID,
		EventID:       p.EventID,
		Quantity:      p.Quantity,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		OccurredAt:    time.Now().UTC(),
	}
}
