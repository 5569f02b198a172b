package agents

import "fmt"

// ErrAgentNotFound indicates an unknown agent id.
type ErrAgentNotFound struct {
	AgentID string
}

func (e *ErrAgentNotFound) Error() string {
	return fmt.Sprintf("agent not found: %s", e.AgentID)
}

// ErrEmptyInput indicates dispatch was called with no user text.
type ErrEmptyInput struct{}

func (e *ErrEmptyInput) Error() string {
	return "dispatch input is empty"
}
