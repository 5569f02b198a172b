package server

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dmarsh/docketmind/internal/billing"
	"github.com/dmarsh/docketmind/internal/server/middleware"
)

// maxWebhookBytes caps webhook bodies; provider events are small.
const maxWebhookBytes = 1 << 20

// handleBillingWebhook receives signed events from the billing provider.
// The signature is verified before anything else touches the body. After
// verification the delivery is always acknowledged with 200, even when
// applying the event fails internally, so the provider does not retry
// forever; failures are logged for operators instead.
func (s *Server) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Billing-Signature")
	if err := billing.VerifySignature(s.webhookSecret, signature, body, time.Now()); err != nil {
		log.Printf("[billing] webhook signature rejected: %v", err)
		s.errorResponse(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	event, err := billing.ParseEvent(body)
	if err != nil {
		log.Printf("[billing] webhook event malformed: %v", err)
		s.jsonResponse(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := s.events.Apply(r.Context(), event); err != nil {
		log.Printf("[billing] failed to apply event %s (%s): %v", event.ID, event.Type, err)
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"received": true})
}

// handleGetSubscription returns the caller's subscription and payments.
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	subscription, err := s.db.GetSubscription(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get subscription")
		return
	}

	payments, err := s.db.ListPayments(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}

	s.jsonResponse(w, http.StatusOK, SubscriptionResponse{
		Subscription: subscription,
		Payments:     payments,
	})
}
