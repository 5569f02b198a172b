package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/docketmind/internal/db"
)

const testSecret = "whsec_test"

func signedHeader(secret string, at time.Time, body []byte) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeSignature(secret, ts, body))
}

func TestVerifySignature_Valid(t *testing.T) {
	now := time.Now()
	body := []byte(`{"id":"evt_1"}`)

	err := VerifySignature(testSecret, signedHeader(testSecret, now, body), body, now)
	assert.NoError(t, err)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	now := time.Now()
	body := []byte(`{"id":"evt_1"}`)

	err := VerifySignature(testSecret, signedHeader("whsec_other", now, body), body, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Now()
	header := signedHeader(testSecret, now, []byte(`{"amount_cents":999}`))

	err := VerifySignature(testSecret, header, []byte(`{"amount_cents":1}`), now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)

	header := signedHeader(testSecret, now.Add(-10*time.Minute), body)
	assert.ErrorIs(t, VerifySignature(testSecret, header, body, now), ErrStaleSignature)

	header = signedHeader(testSecret, now.Add(10*time.Minute), body)
	assert.ErrorIs(t, VerifySignature(testSecret, header, body, now), ErrStaleSignature)
}

func TestVerifySignature_WithinTolerance(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)

	header := signedHeader(testSecret, now.Add(-4*time.Minute), body)
	assert.NoError(t, VerifySignature(testSecret, header, body, now))
}

func TestVerifySignature_MalformedHeaders(t *testing.T) {
	body := []byte(`{}`)
	for _, header := range []string{
		"",
		"v1=abc",
		"t=123",
		"t=notanumber,v1=abc",
		"garbage",
	} {
		t.Run(header, func(t *testing.T) {
			err := VerifySignature(testSecret, header, body, time.Now())
			assert.ErrorIs(t, err, ErrMalformedSignature)
		})
	}
}

func TestParseEvent(t *testing.T) {
	userID := uuid.New()
	body := fmt.Sprintf(`{"id":"evt_42","type":"payment.succeeded","data":{"user_id":"%s","amount_cents":2900,"currency":"usd"}}`, userID)

	event, err := ParseEvent([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "evt_42", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, userID, event.Data.UserID)
	assert.Equal(t, int64(2900), event.Data.AmountCents)
}

func TestParseEvent_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     `{{`,
		"missing id":   `{"type":"payment.succeeded","data":{"user_id":"` + uuid.NewString() + `"}}`,
		"missing user": `{"id":"evt_1","type":"payment.succeeded","data":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(body))
			assert.Error(t, err)
		})
	}
}

type fakeBillingStore struct {
	subscriptions []*db.SubscriptionInput
	payments      []string
}

func (f *fakeBillingStore) UpsertSubscription(_ context.Context, input *db.SubscriptionInput) error {
	f.subscriptions = append(f.subscriptions, input)
	return nil
}

func (f *fakeBillingStore) InsertPayment(_ context.Context, _ uuid.UUID, providerEventID string, _ int64, _, status string) error {
	f.payments = append(f.payments, providerEventID+":"+status)
	return nil
}

func TestApply_SubscriptionUpdated(t *testing.T) {
	store := &fakeBillingStore{}
	p := NewProcessor(store)
	userID := uuid.New()

	err := p.Apply(context.Background(), &Event{
		ID:   "evt_1",
		Type: EventSubscriptionUpdated,
		Data: EventData{UserID: userID, ProviderCustomerID: "cus_9", Plan: "pro", Status: "active", DocumentsPerMonth: 100},
	})
	require.NoError(t, err)

	require.Len(t, store.subscriptions, 1)
	assert.Equal(t, "pro", store.subscriptions[0].Plan)
	assert.Equal(t, userID, store.subscriptions[0].UserID)
}

func TestApply_SubscriptionDeletedDowngradesToFree(t *testing.T) {
	store := &fakeBillingStore{}
	p := NewProcessor(store)

	err := p.Apply(context.Background(), &Event{
		ID:   "evt_2",
		Type: EventSubscriptionDeleted,
		Data: EventData{UserID: uuid.New(), ProviderCustomerID: "cus_9"},
	})
	require.NoError(t, err)

	require.Len(t, store.subscriptions, 1)
	assert.Equal(t, "free", store.subscriptions[0].Plan)
	assert.Equal(t, "canceled", store.subscriptions[0].Status)
}

func TestApply_Payments(t *testing.T) {
	store := &fakeBillingStore{}
	p := NewProcessor(store)
	userID := uuid.New()

	require.NoError(t, p.Apply(context.Background(), &Event{
		ID: "evt_3", Type: EventPaymentSucceeded,
		Data: EventData{UserID: userID, AmountCents: 2900, Currency: "usd"},
	}))
	require.NoError(t, p.Apply(context.Background(), &Event{
		ID: "evt_4", Type: EventPaymentFailed,
		Data: EventData{UserID: userID, AmountCents: 2900, Currency: "usd"},
	}))

	assert.Equal(t, []string{"evt_3:succeeded", "evt_4:failed"}, store.payments)
}

func TestApply_UnknownTypeIgnored(t *testing.T) {
	store := &fakeBillingStore{}
	p := NewProcessor(store)

	err := p.Apply(context.Background(), &Event{
		ID: "evt_5", Type: "invoice.finalized",
		Data: EventData{UserID: uuid.New()},
	})

	require.NoError(t, err)
	assert.Empty(t, store.subscriptions)
	assert.Empty(t, store.payments)
}
