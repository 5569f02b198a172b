package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UpsertIntegration links a user to an external provider account, replacing
// any prior link to the same provider.
func (db *DB) UpsertIntegration(ctx context.Context, userID uuid.UUID, provider, externalID string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO integration_connections (user_id, provider, external_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, provider) DO UPDATE SET external_id = $3`,
		userID, provider, externalID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}
	return nil
}

// ListIntegrations retrieves a user's integration connections.
func (db *DB) ListIntegrations(ctx context.Context, userID uuid.UUID) ([]IntegrationConnection, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, provider, external_id, created_at
		 FROM integration_connections WHERE user_id = $1 ORDER BY provider`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer rows.Close()

	var conns []IntegrationConnection
	for rows.Next() {
		var c IntegrationConnection
		if err := rows.Scan(&c.ID, &c.UserID, &c.Provider, &c.ExternalID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, nil
}

// DeleteIntegration removes a user's link to a provider.
// Returns false when no link existed.
func (db *DB) DeleteIntegration(ctx context.Context, userID uuid.UUID, provider string) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM integration_connections WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete integration: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
