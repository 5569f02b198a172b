package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionInput holds the fields applied from a billing webhook event.
type SubscriptionInput struct {
	UserID             uuid.UUID
	ProviderCustomerID string
	Plan               string
	Status             string
	DocumentsPerMonth  int
	CurrentPeriodEnd   *time.Time
}

// UpsertSubscription creates or replaces a user's subscription state.
// Webhook deliveries can arrive out of order or repeated; last write wins.
func (db *DB) UpsertSubscription(ctx context.Context, input *SubscriptionInput) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, provider_customer_id, plan, status, documents_per_month, current_period_end)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
			provider_customer_id = $2, plan = $3, status = $4,
			documents_per_month = $5, current_period_end = $6, updated_at = NOW()`,
		input.UserID, input.ProviderCustomerID, input.Plan, input.Status,
		input.DocumentsPerMonth, input.CurrentPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// GetSubscription retrieves a user's subscription, or nil when absent.
func (db *DB) GetSubscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var s Subscription
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, provider_customer_id, plan, status, documents_per_month, current_period_end, created_at, updated_at
		 FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&s.ID, &s.UserID, &s.ProviderCustomerID, &s.Plan, &s.Status,
		&s.DocumentsPerMonth, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &s, nil
}

// InsertPayment records a payment event. The provider event id is unique so
// redelivered webhooks do not double-record; a conflict is a no-op.
func (db *DB) InsertPayment(ctx context.Context, userID uuid.UUID, providerEventID string, amountCents int64, currency, status string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO payments (user_id, provider_event_id, amount_cents, currency, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (provider_event_id) DO NOTHING`,
		userID, providerEventID, amountCents, currency, status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPayments retrieves a user's payments, newest first.
func (db *DB) ListPayments(ctx context.Context, userID uuid.UUID) ([]Payment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, provider_event_id, amount_cents, currency, status, created_at
		 FROM payments WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProviderEventID, &p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}
