package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/db"
)

// Event types the provider delivers. Unknown types are acknowledged and
// skipped so new provider events never bounce.
const (
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
	EventPaymentSucceeded    = "payment.succeeded"
	EventPaymentFailed       = "payment.failed"
)

// Event is a verified webhook delivery.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data EventData       `json:"data"`
	Raw  json.RawMessage `json:"-"`
}

// EventData carries the union of fields across event types.
type EventData struct {
	UserID             uuid.UUID  `json:"user_id"`
	ProviderCustomerID string     `json:"customer_id"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	DocumentsPerMonth  int        `json:"documents_per_month"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	AmountCents        int64      `json:"amount_cents"`
	Currency           string     `json:"currency"`
}

// ParseEvent decodes a verified body into an event.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if event.ID == "" || event.Type == "" || event.Data.UserID == uuid.Nil {
		return nil, fmt.Errorf("event missing id, type or user")
	}
	event.Raw = body
	return &event, nil
}

// SubscriptionStore is the slice of the database event application needs.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, input *db.SubscriptionInput) error
	InsertPayment(ctx context.Context, userID uuid.UUID, providerEventID string, amountCents int64, currency, status string) error
}

// Processor applies verified events to stored billing state.
type Processor struct {
	store SubscriptionStore
}

// NewProcessor creates an event processor over the given store.
func NewProcessor(store SubscriptionStore) *Processor {
	return &Processor{store: store}
}

// Apply mutates billing state for one event. Deliveries may repeat or arrive
// out of order: subscription events are last-write-wins upserts, payment
// events dedupe on the provider event id.
func (p *Processor) Apply(ctx context.Context, event *Event) error {
	switch event.Type {
	case EventSubscriptionUpdated:
		return p.store.UpsertSubscription(ctx, &db.SubscriptionInput{
			UserID:             event.Data.UserID,
			ProviderCustomerID: event.Data.ProviderCustomerID,
			Plan:               event.Data.Plan,
			Status:             event.Data.Status,
			DocumentsPerMonth:  event.Data.DocumentsPerMonth,
			CurrentPeriodEnd:   event.Data.CurrentPeriodEnd,
		})

	case EventSubscriptionDeleted:
		return p.store.UpsertSubscription(ctx, &db.SubscriptionInput{
			UserID:             event.Data.UserID,
			ProviderCustomerID: event.Data.ProviderCustomerID,
			Plan:               "free",
			Status:             "canceled",
			DocumentsPerMonth:  0,
		})

	case EventPaymentSucceeded:
		return p.store.InsertPayment(ctx, event.Data.UserID, event.ID,
			event.Data.AmountCents, event.Data.Currency, "succeeded")

	case EventPaymentFailed:
		return p.store.InsertPayment(ctx, event.Data.UserID, event.ID,
			event.Data.AmountCents, event.Data.Currency, "failed")

	default:
		log.Printf("[billing] ignoring unknown event type %q (%s)", event.Type, event.ID)
		return nil
	}
}
