package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agentOutputColumns = `id, document_id,
	jester_meme_caption, jester_video_script, jester_social_post,
	arbiter_violations, arbiter_citations, arbiter_analysis,
	merchant_product_name, merchant_product_description, merchant_product_link,
	created_at`

// UpsertAgentOutput stores the structured processing result for a document.
// Re-processing a failed document overwrites the prior row; the unique
// constraint on document_id keeps the relationship 1:1.
func (db *DB) UpsertAgentOutput(ctx context.Context, documentID uuid.UUID, input *AgentOutputInput) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO agent_outputs (document_id,
			jester_meme_caption, jester_video_script, jester_social_post,
			arbiter_violations, arbiter_citations, arbiter_analysis,
			merchant_product_name, merchant_product_description, merchant_product_link)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (document_id) DO UPDATE SET
			jester_meme_caption = $2, jester_video_script = $3, jester_social_post = $4,
			arbiter_violations = $5, arbiter_citations = $6, arbiter_analysis = $7,
			merchant_product_name = $8, merchant_product_description = $9, merchant_product_link = $10,
			created_at = NOW()`,
		documentID,
		input.JesterMemeCaption, input.JesterVideoScript, input.JesterSocialPost,
		input.ArbiterViolations, input.ArbiterCitations, input.ArbiterAnalysis,
		input.MerchantProductName, input.MerchantProductDescription, input.MerchantProductLink,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert agent output: %w", err)
	}
	return nil
}

// GetAgentOutput retrieves the agent output for a document, or nil when the
// document has never completed processing.
func (db *DB) GetAgentOutput(ctx context.Context, documentID uuid.UUID) (*AgentOutput, error) {
	var out AgentOutput
	err := db.pool.QueryRow(ctx,
		`SELECT `+agentOutputColumns+` FROM agent_outputs WHERE document_id = $1`,
		documentID,
	).Scan(&out.ID, &out.DocumentID,
		&out.JesterMemeCaption, &out.JesterVideoScript, &out.JesterSocialPost,
		&out.ArbiterViolations, &out.ArbiterCitations, &out.ArbiterAnalysis,
		&out.MerchantProductName, &out.MerchantProductDescription, &out.MerchantProductLink,
		&out.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent output: %w", err)
	}
	return &out, nil
}
