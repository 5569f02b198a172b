package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/swarm"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest is the body for PUT /auth/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// AuthResponse carries the user and a fresh token.
type AuthResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

// UploadDocumentRequest is the body for POST /documents. FileContent is
// base64-encoded.
type UploadDocumentRequest struct {
	FileName    string `json:"file_name" validate:"required,min=1,max=255"`
	FileContent string `json:"file_content" validate:"required"`
	MimeType    string `json:"mime_type" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"required,gt=0"`
}

// DocumentDetailResponse is the body for GET /documents/{id}.
type DocumentDetailResponse struct {
	Document *db.Document    `json:"document"`
	Output   *db.AgentOutput `json:"output,omitempty"`
}

// ProcessDocumentRequest is the body for POST /documents/{id}/process.
type ProcessDocumentRequest struct {
	DocumentText string `json:"document_text" validate:"required"`
}

// ProcessDocumentResponse is the body for a successful process call.
type ProcessDocumentResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
}

// ExtractResponse is the body for POST /documents/{id}/extract.
type ExtractResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	MimeType   string    `json:"mime_type"`
	Text       string    `json:"text"`
}

// DispatchRequest is the body for POST /agents/dispatch.
type DispatchRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	Input   string `json:"input" validate:"required"`
}

// StartSwarmRequest is the body for POST /swarms.
type StartSwarmRequest struct {
	DocumentID uuid.UUID `json:"document_id" validate:"required"`
	Division   string    `json:"division" validate:"required"`
}

// StartSwarmResponse carries the new session id.
type StartSwarmResponse struct {
	SwarmSessionID uuid.UUID `json:"swarm_session_id"`
}

// SwarmSessionResponse is a session snapshot for polling clients.
type SwarmSessionResponse struct {
	Session *swarm.Session `json:"session"`
}

// ReportRequest is the body for POST /reports.
type ReportRequest struct {
	DocumentID     uuid.UUID `json:"document_id" validate:"required"`
	Template       string    `json:"template"`
	Format         string    `json:"format"`
	IncludeSummary bool      `json:"include_summary"`
	Branding       *Branding `json:"branding,omitempty"`
}

// Branding carries optional presentation fields echoed back to the client.
type Branding struct {
	FirmName string `json:"firm_name,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// IntegrationRequest is the body for POST /integrations.
type IntegrationRequest struct {
	Provider   string `json:"provider" validate:"required,min=1,max=100"`
	ExternalID string `json:"external_id" validate:"required,min=1,max=255"`
}

// SubscriptionResponse is the body for GET /billing/subscription.
type SubscriptionResponse struct {
	Subscription *db.Subscription `json:"subscription"`
	Payments     []db.Payment     `json:"payments"`
}

// healthResponse is the body for GET /health.
type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
