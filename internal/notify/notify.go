// Package notify is the fire-and-forget notification sink. Delivery
// (SMS/email/WhatsApp) lives outside this service; the default sink only
// logs the event. Failures are logged, never propagated.
package notify

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is a notification payload handed to the sink.
type Event struct {
	Type      string
	StudentID uuid.UUID
	InvoiceID uuid.UUID
	Detail    string
}

// Notifier is the sink consumed by the services.
type Notifier interface {
	Notify(tenant uuid.UUID, event Event)
}

type logNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(tenant uuid.UUID, event Event) {
	n.log.Info().
		Str("tenant_id", tenant.String()).
		Str("event", event.Type).
		Str("invoice_id", event.InvoiceID.String()).
		Str("detail", event.Detail).
		Msg("notification dispatched")
}
