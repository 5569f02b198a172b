// Package swarm fans the agent dispatcher out across every agent in a
// division and tracks per-agent progress in poll-able sessions.
package swarm

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmarsh/docketmind/internal/agents"
)

// maxConcurrentAgents caps in-flight LLM calls per swarm run to stay inside
// provider rate limits.
const maxConcurrentAgents = 4

// perAgentTimeout bounds each agent's LLM call.
const perAgentTimeout = 60 * time.Second

// Status is a session or per-agent run state.
type Status string

// Session and agent-result states. A session stays processing until every
// agent result is terminal; it completes only when none failed.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// AgentResult tracks one agent's run within a session.
type AgentResult struct {
	AgentID          string  `json:"agent_id"`
	AgentName        string  `json:"agent_name"`
	Status           Status  `json:"status"`
	Output           *string `json:"output,omitempty"`
	ProcessingTimeMs *int64  `json:"processing_time_ms,omitempty"`
}

// Session is a snapshot of one swarm run. The owner is recorded at start and
// never serialized; reads are scoped to it.
type Session struct {
	ID              uuid.UUID       `json:"id"`
	OwnerID         uuid.UUID       `json:"-"`
	DocumentID      uuid.UUID       `json:"document_id"`
	Division        agents.Division `json:"division"`
	TotalAgents     int             `json:"total_agents"`
	CompletedAgents int             `json:"completed_agents"`
	Status          Status          `json:"status"`
	Results         []AgentResult   `json:"results"`
	CreatedAt       time.Time       `json:"created_at"`
}

// agentRunner is the slice of the dispatcher the orchestrator needs.
type agentRunner interface {
	Dispatch(ctx context.Context, agentID, input string) (*agents.DispatchResult, error)
}

// Orchestrator starts swarm runs and serves session snapshots.
// Sessions are ephemeral in-memory state; they do not survive a restart.
type Orchestrator struct {
	runner agentRunner

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewOrchestrator creates an orchestrator over the given dispatcher.
func NewOrchestrator(dispatcher *agents.Dispatcher) *Orchestrator {
	return newOrchestrator(dispatcher)
}

func newOrchestrator(runner agentRunner) *Orchestrator {
	return &Orchestrator{
		runner:   runner,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Start creates a session covering every agent in the division and launches
// the runs. The runs are detached from the caller's context: a client that
// stops polling does not cancel in-flight agent calls.
func (o *Orchestrator) Start(ownerID, documentID uuid.UUID, division agents.Division, documentText string) (uuid.UUID, error) {
	if !agents.ValidDivision(division) {
		return uuid.Nil, fmt.Errorf("unknown division: %s", division)
	}
	roster := agents.ByDivision(division)
	if len(roster) == 0 {
		return uuid.Nil, fmt.Errorf("division %s has no agents", division)
	}

	session := &Session{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		DocumentID:  documentID,
		Division:    division,
		TotalAgents: len(roster),
		Status:      StatusProcessing,
		Results:     make([]AgentResult, len(roster)),
		CreatedAt:   time.Now().UTC(),
	}
	for i, agent := range roster {
		session.Results[i] = AgentResult{
			AgentID:   agent.ID,
			AgentName: agent.Name,
			Status:    StatusPending,
		}
	}

	o.mu.Lock()
	o.sessions[session.ID] = session
	o.mu.Unlock()

	go o.run(session.ID, roster, documentText)

	return session.ID, nil
}

// run executes every agent with bounded concurrency. Agent failures are
// recorded per result and never abort the other agents.
func (o *Orchestrator) run(sessionID uuid.UUID, roster []agents.AgentDefinition, documentText string) {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(maxConcurrentAgents)

	for i, agent := range roster {
		g.Go(func() error {
			o.setResultStatus(sessionID, i, StatusProcessing)

			callCtx, cancel := context.WithTimeout(ctx, perAgentTimeout)
			defer cancel()

			start := time.Now()
			result, err := o.runner.Dispatch(callCtx, agent.ID, documentText)
			elapsed := time.Since(start).Milliseconds()

			if err != nil {
				log.Printf("[swarm] agent %s failed in session %s: %v", agent.ID, sessionID, err)
				o.finishResult(sessionID, i, StatusFailed, nil, elapsed)
				return nil // one agent's failure must not block the others
			}

			o.finishResult(sessionID, i, StatusCompleted, &result.Output, elapsed)
			return nil
		})
	}

	_ = g.Wait() // workers never return errors
	o.finalize(sessionID)
}

func (o *Orchestrator) setResultStatus(sessionID uuid.UUID, idx int, status Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if session, ok := o.sessions[sessionID]; ok {
		session.Results[idx].Status = status
	}
}

func (o *Orchestrator) finishResult(sessionID uuid.UUID, idx int, status Status, output *string, elapsedMs int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.sessions[sessionID]
	if !ok {
		return
	}
	session.Results[idx].Status = status
	session.Results[idx].Output = output
	session.Results[idx].ProcessingTimeMs = &elapsedMs
	if status == StatusCompleted {
		session.CompletedAgents++
	}
}

// finalize sets the aggregate status once every result is terminal:
// completed only when zero agents failed, else failed.
func (o *Orchestrator) finalize(sessionID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.sessions[sessionID]
	if !ok {
		return
	}
	for _, r := range session.Results {
		if r.Status == StatusFailed {
			session.Status = StatusFailed
			return
		}
	}
	session.Status = StatusCompleted
}

// Snapshot returns a deep copy of the session's current state, including
// partial progress while agents are still running. Polling is idempotent:
// with no state change, repeated snapshots are identical. Reads are scoped to
// the owner; someone else's session id reads as unknown.
func (o *Orchestrator) Snapshot(ownerID, sessionID uuid.UUID) (*Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	session, ok := o.sessions[sessionID]
	if !ok || session.OwnerID != ownerID {
		return nil, &ErrSessionNotFound{SessionID: sessionID}
	}

	copied := *session
	copied.Results = make([]AgentResult, len(session.Results))
	for i, r := range session.Results {
		copied.Results[i] = r
		if r.Output != nil {
			output := *r.Output
			copied.Results[i].Output = &output
		}
		if r.ProcessingTimeMs != nil {
			elapsed := *r.ProcessingTimeMs
			copied.Results[i].ProcessingTimeMs = &elapsed
		}
	}
	return &copied, nil
}

// ErrSessionNotFound indicates an unknown swarm session id.
type ErrSessionNotFound struct {
	SessionID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("swarm session not found: %s", e.SessionID)
}
