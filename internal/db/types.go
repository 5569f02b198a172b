package db

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the document lifecycle state.
type DocumentStatus string

// Document lifecycle states. A document is created pending, claimed into
// processing, and always leaves processing for exactly one of the terminal
// states. Failed documents may be claimed again.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// ValidDocumentStatus reports whether s is a known lifecycle state.
func ValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Document represents an uploaded file record.
type Document struct {
	ID        uuid.UUID      `json:"id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	FileName  string         `json:"file_name"`
	FileKey   string         `json:"file_key"`
	FileURL   string         `json:"file_url"`
	MimeType  string         `json:"mime_type"`
	FileSize  int64          `json:"file_size"`
	Status    DocumentStatus `json:"status"`
	Summary   *string        `json:"summary,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CanProcess reports whether a processing request against this document is
// allowed. The state machine is authoritative here, not in any client.
func (d *Document) CanProcess() bool {
	return d.Status == StatusPending || d.Status == StatusFailed
}

// DocumentCreateInput holds the fields for creating a document record.
type DocumentCreateInput struct {
	OwnerID  uuid.UUID
	FileName string
	FileKey  string
	FileURL  string
	MimeType string
	FileSize int64
}

// AgentOutput is the persisted structured result of the three-persona
// document-processing call, 1:1 with its document.
type AgentOutput struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`

	JesterMemeCaption string `json:"jester_meme_caption"`
	JesterVideoScript string `json:"jester_video_script"`
	JesterSocialPost  string `json:"jester_social_post"`

	// Violations and citations are stored JSON-encoded string arrays.
	ArbiterViolations string `json:"arbiter_violations"`
	ArbiterCitations  string `json:"arbiter_citations"`
	ArbiterAnalysis   string `json:"arbiter_analysis"`

	MerchantProductName        string `json:"merchant_product_name"`
	MerchantProductDescription string `json:"merchant_product_description"`
	MerchantProductLink        string `json:"merchant_product_link"`

	CreatedAt time.Time `json:"created_at"`
}

// AgentOutputInput holds the fields for upserting an agent output row.
type AgentOutputInput struct {
	JesterMemeCaption string
	JesterVideoScript string
	JesterSocialPost  string

	ArbiterViolations string
	ArbiterCitations  string
	ArbiterAnalysis   string

	MerchantProductName        string
	MerchantProductDescription string
	MerchantProductLink        string
}

// User represents an account row.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subscription tracks billing-provider subscription state for a user.
type Subscription struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	ProviderCustomerID string     `json:"provider_customer_id"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	// DocumentsPerMonth is the documented plan allowance. It is stored and
	// reported but not enforced.
	DocumentsPerMonth int        `json:"documents_per_month"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Payment records a single billing-provider payment event.
type Payment struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ProviderEventID string    `json:"provider_event_id"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// IntegrationConnection links a user to an external provider account.
type IntegrationConnection struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Provider   string    `json:"provider"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}
