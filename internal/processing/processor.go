// Package processing implements the structured document processor: the
// combined three-persona LLM call whose schema-validated result becomes a
// document's agent output.
package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/llm"
	"github.com/dmarsh/docketmind/internal/schemas"
)

// llmCallTimeout bounds each provider call; a timeout reads as a provider
// failure, not a hang.
const llmCallTimeout = 60 * time.Second

// DocumentStore is the slice of the database the processor needs.
type DocumentStore interface {
	GetDocument(ctx context.Context, ownerID, id uuid.UUID) (*db.Document, error)
	ClaimForProcessing(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	SetDocumentStatus(ctx context.Context, id uuid.UUID, status db.DocumentStatus, summary *string) error
	UpsertAgentOutput(ctx context.Context, documentID uuid.UUID, input *db.AgentOutputInput) error
}

// Result is the caller-visible outcome of a successful process call.
type Result struct {
	Summary string `json:"summary"`
}

// Processor runs the structured three-persona processing flow.
type Processor struct {
	store DocumentStore
	llm   llm.Client
	tier  llm.ModelTier
}

// New creates a processor over the given store and LLM client.
func New(store DocumentStore, client llm.Client) *Processor {
	return &Processor{
		store: store,
		llm:   client,
		tier:  llm.TierAdvanced,
	}
}

// Process runs the combined three-persona call for a document and persists
// the validated result. The document must be owned by ownerID and in a
// claimable state (pending or failed); the claim itself is a conditional
// update, so two concurrent calls can never both proceed.
//
// Once the document is claimed, every exit path leaves it terminal: completed
// with a summary on success, failed otherwise. It is never left processing.
func (p *Processor) Process(ctx context.Context, ownerID, documentID uuid.UUID, documentText string) (*Result, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, &ErrEmptyText{}
	}

	doc, err := p.store.GetDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, &ErrDocumentNotFound{DocumentID: documentID}
	}

	claimed, err := p.store.ClaimForProcessing(ctx, ownerID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim document: %w", err)
	}
	if !claimed {
		// The claim raced or the document is already terminal. Re-read so the
		// error carries the status that blocked the claim, not the one seen
		// before it.
		status := db.StatusProcessing
		if current, readErr := p.store.GetDocument(ctx, ownerID, documentID); readErr == nil && current != nil {
			status = current.Status
		}
		return nil, &ErrAlreadyProcessing{DocumentID: documentID, Status: status}
	}

	// The claim promises a terminal status, so the run must outlive the
	// caller; a client disconnect no longer cancels it. The per-call timeout
	// still bounds the LLM call.
	result, err := p.run(context.WithoutCancel(ctx), documentID, documentText)
	if err != nil {
		// The failed status is the durable record; the caller's error is a
		// notification. A failed status write here must not mask the cause.
		if statusErr := p.store.SetDocumentStatus(ctx, documentID, db.StatusFailed, nil); statusErr != nil {
			log.Printf("[processing] failed to mark document %s failed: %v", documentID, statusErr)
		}
		return nil, err
	}

	return result, nil
}

// run executes the claimed portion of the flow: LLM call, strict decode,
// output upsert, completed transition.
func (p *Processor) run(ctx context.Context, documentID uuid.UUID, documentText string) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	raw, err := p.llm.GenerateJSON(callCtx, []llm.Message{
		llm.SystemMessage(combinedPersonaPrompt),
		llm.UserMessage(buildDocumentPrompt(documentText)),
	}, p.tier)
	if err != nil {
		return nil, err
	}

	payload, err := schemas.DecodeAgentOutput(raw)
	if err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			log.Printf("[processing] schema validation failed for document %s; raw payload: %s", documentID, ve.Raw)
		}
		return nil, err
	}

	input, err := toOutputInput(payload)
	if err != nil {
		return nil, err
	}
	if err := p.store.UpsertAgentOutput(ctx, documentID, input); err != nil {
		return nil, fmt.Errorf("failed to persist agent output: %w", err)
	}

	if err := p.store.SetDocumentStatus(ctx, documentID, db.StatusCompleted, &payload.Summary); err != nil {
		// The document is then marked failed with the output row still in
		// place. A retry reclaims the document and the upsert overwrites the
		// row, so it is not deleted here.
		return nil, fmt.Errorf("failed to complete document: %w", err)
	}

	return &Result{Summary: payload.Summary}, nil
}

// toOutputInput flattens the parsed payload into the storage row, encoding
// the arbiter's array fields as JSON strings.
func toOutputInput(payload *schemas.AgentOutputPayload) (*db.AgentOutputInput, error) {
	violations, err := json.Marshal(payload.Arbiter.Violations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode violations: %w", err)
	}
	citations, err := json.Marshal(payload.Arbiter.Citations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode citations: %w", err)
	}

	return &db.AgentOutputInput{
		JesterMemeCaption:          payload.Jester.MemeCaption,
		JesterVideoScript:          payload.Jester.VideoScript,
		JesterSocialPost:           payload.Jester.SocialPost,
		ArbiterViolations:          string(violations),
		ArbiterCitations:           string(citations),
		ArbiterAnalysis:            payload.Arbiter.Analysis,
		MerchantProductName:        payload.Merchant.ProductName,
		MerchantProductDescription: payload.Merchant.ProductDescription,
		MerchantProductLink:        payload.Merchant.ProductLink,
	}, nil
}
