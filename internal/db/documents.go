package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const documentColumns = `id, owner_id, file_name, file_key, file_url, mime_type, file_size, status, summary, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.FileName, &d.FileKey, &d.FileURL,
		&d.MimeType, &d.FileSize, &d.Status, &d.Summary, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument inserts a new document record in pending state.
func (db *DB) CreateDocument(ctx context.Context, input *DocumentCreateInput) (*Document, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO documents (owner_id, file_name, file_key, file_url, mime_type, file_size, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		 RETURNING `+documentColumns,
		input.OwnerID, input.FileName, input.FileKey, input.FileURL, input.MimeType, input.FileSize,
	)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// GetDocument retrieves a document by id, scoped to its owner.
// Returns nil when absent or owned by someone else; callers must not be able
// to distinguish the two cases.
func (db *DB) GetDocument(ctx context.Context, ownerID, id uuid.UUID) (*Document, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments retrieves all documents owned by a user, newest first.
func (db *DB) ListDocuments(ctx context.Context, ownerID uuid.UUID) ([]Document, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// ClaimForProcessing atomically transitions a document to processing, but
// only from pending or failed. Returns false when the document is missing,
// foreign, or not claimable; this conditional update is the per-document
// processing lock, so callers never need a separate check-then-set.
func (db *DB) ClaimForProcessing(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE documents SET status = 'processing', updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2 AND status IN ('pending', 'failed')`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim document: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// SetDocumentStatus transitions a document to the given status, optionally
// setting the summary (completed documents carry one, failed ones do not).
func (db *DB) SetDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus, summary *string) error {
	if !ValidDocumentStatus(status) {
		return fmt.Errorf("invalid document status: %s", status)
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE documents SET status = $1, summary = COALESCE($2, summary), updated_at = NOW() WHERE id = $3`,
		status, summary, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set document status: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and (via cascade) its agent output.
// Returns false when the document is missing or foreign.
func (db *DB) DeleteDocument(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteDocumentsForOwner removes every document owned by a user.
// Returns the keys of the deleted documents so blob cleanup can follow.
func (db *DB) DeleteDocumentsForOwner(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`DELETE FROM documents WHERE owner_id = $1 RETURNING file_key`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete documents: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan deleted key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
