package alerts

import (
	"context"

	"kitchenboard/internal/models"

	log "github.com/sirupsen/logrus"
)

// LogSink writes every alert to the given logger. It stands in for the
// display's audible chime.
func LogSink(logger log.FieldLogger) Handler {
	return func(ctx context.Context, event models.AlertEvent) error {
		entry := logger.WithFields(log.Fields{
			"alert_id": event.ID,
			"kind":     event.Kind,
		})
		switch event.Kind {
		case models.AlertNewOrder:
			entry.Info("New order received")
		case models.AlertOrderOverdue:
			entry.WithField("order_id", event.OrderID).Warn("Order overdue")
		default:
			entry.Info("Alert")
		}
		return nil
	}
}
