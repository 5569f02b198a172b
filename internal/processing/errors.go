package processing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/db"
)

// ErrDocumentNotFound indicates the document is missing or not owned by the
// caller; the two cases are deliberately indistinguishable.
type ErrDocumentNotFound struct {
	DocumentID uuid.UUID
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("document not found: %s", e.DocumentID)
}

// ErrAlreadyProcessing indicates the document could not be claimed: it is
// being processed right now, or it already completed. Not queued, rejected.
type ErrAlreadyProcessing struct {
	DocumentID uuid.UUID
	Status     db.DocumentStatus
}

func (e *ErrAlreadyProcessing) Error() string {
	return fmt.Sprintf("document %s cannot be processed while %s", e.DocumentID, e.Status)
}

// ErrEmptyText indicates a processing request with no document text.
type ErrEmptyText struct{}

func (e *ErrEmptyText) Error() string {
	return "document text is empty"
}
