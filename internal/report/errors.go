package report

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrDocumentNotFound indicates the document is missing or not owned by the
// caller.
type ErrDocumentNotFound struct {
	DocumentID uuid.UUID
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("document not found: %s", e.DocumentID)
}

// ErrNoOutput indicates the document has not been processed yet, so there is
// nothing to report on.
type ErrNoOutput struct {
	DocumentID uuid.UUID
}

func (e *ErrNoOutput) Error() string {
	return fmt.Sprintf("document %s has no agent output to report on", e.DocumentID)
}
