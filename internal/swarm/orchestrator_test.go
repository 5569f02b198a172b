package swarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/docketmind/internal/agents"
)

// fakeRunner controls per-agent outcomes and can hold agents until released.
type fakeRunner struct {
	mu      sync.Mutex
	failing map[string]bool
	gate    chan struct{} // when non-nil, Dispatch blocks until closed
	inputs  []string
}

func (f *fakeRunner) Dispatch(_ context.Context, agentID, input string) (*agents.DispatchResult, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	failing := f.failing[agentID]
	f.mu.Unlock()

	if failing {
		return nil, errors.New("provider exploded")
	}
	return &agents.DispatchResult{
		AgentID:   agentID,
		AgentName: agentID,
		Output:    "analysis from " + agentID,
	}, nil
}

// waitTerminal polls until the session leaves processing.
func waitTerminal(t *testing.T, o *Orchestrator, owner, id uuid.UUID) *Session {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		snapshot, err := o.Snapshot(owner, id)
		require.NoError(t, err)
		if snapshot.Status != StatusProcessing {
			return snapshot
		}
		select {
		case <-deadline:
			t.Fatal("session never reached a terminal status")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStart_UnknownDivision(t *testing.T) {
	o := newOrchestrator(&fakeRunner{})
	_, err := o.Start(uuid.New(), uuid.New(), agents.Division("marketing"), "text")
	assert.Error(t, err)
}

func TestStart_ImmediateSnapshotListsWholeRoster(t *testing.T) {
	gate := make(chan struct{})
	o := newOrchestrator(&fakeRunner{gate: gate})
	owner := uuid.New()

	sessionID, err := o.Start(owner, uuid.New(), agents.DivisionTactical, "The court denied the motion.")
	require.NoError(t, err)

	snapshot, err := o.Snapshot(owner, sessionID)
	require.NoError(t, err)

	assert.Equal(t, 3, snapshot.TotalAgents)
	assert.Equal(t, StatusProcessing, snapshot.Status)
	require.Len(t, snapshot.Results, 3)
	for _, r := range snapshot.Results {
		assert.Contains(t, []Status{StatusPending, StatusProcessing}, r.Status)
		assert.Nil(t, r.Output)
	}

	close(gate)
	waitTerminal(t, o, owner, sessionID)
}

func TestSwarm_AllAgentsComplete(t *testing.T) {
	runner := &fakeRunner{}
	o := newOrchestrator(runner)
	owner := uuid.New()
	docID := uuid.New()

	sessionID, err := o.Start(owner, docID, agents.DivisionTactical, "document text")
	require.NoError(t, err)

	final := waitTerminal(t, o, owner, sessionID)

	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 3, final.CompletedAgents)
	assert.Equal(t, docID, final.DocumentID)
	for _, r := range final.Results {
		assert.Equal(t, StatusCompleted, r.Status)
		require.NotNil(t, r.Output)
		assert.Equal(t, "analysis from "+r.AgentID, *r.Output)
		require.NotNil(t, r.ProcessingTimeMs)
		assert.GreaterOrEqual(t, *r.ProcessingTimeMs, int64(0))
	}

	// Every agent received the same document text.
	for _, input := range runner.inputs {
		assert.Equal(t, "document text", input)
	}
}

func TestSwarm_OneFailureDoesNotBlockOthers(t *testing.T) {
	runner := &fakeRunner{failing: map[string]bool{"settlement-handicapper": true}}
	o := newOrchestrator(runner)
	owner := uuid.New()

	sessionID, err := o.Start(owner, uuid.New(), agents.DivisionTactical, "text")
	require.NoError(t, err)

	final := waitTerminal(t, o, owner, sessionID)

	assert.Equal(t, StatusFailed, final.Status, "any agent failure fails the session once terminal")
	assert.Equal(t, 2, final.CompletedAgents)

	byID := make(map[string]AgentResult)
	for _, r := range final.Results {
		byID[r.AgentID] = r
	}
	assert.Equal(t, StatusFailed, byID["settlement-handicapper"].Status)
	assert.Nil(t, byID["settlement-handicapper"].Output)
	assert.Equal(t, StatusCompleted, byID["motion-strategist"].Status, "other agents' results stay visible")
	assert.Equal(t, StatusCompleted, byID["press-angler"].Status)
}

func TestSnapshot_IdempotentAfterTerminal(t *testing.T) {
	o := newOrchestrator(&fakeRunner{})
	owner := uuid.New()
	sessionID, err := o.Start(owner, uuid.New(), agents.DivisionResearch, "text")
	require.NoError(t, err)

	first := waitTerminal(t, o, owner, sessionID)
	second, err := o.Snapshot(owner, sessionID)
	require.NoError(t, err)

	assert.Equal(t, first, second, "no state change means identical snapshots")
}

func TestSnapshot_IsACopy(t *testing.T) {
	o := newOrchestrator(&fakeRunner{})
	owner := uuid.New()
	sessionID, err := o.Start(owner, uuid.New(), agents.DivisionResearch, "text")
	require.NoError(t, err)
	waitTerminal(t, o, owner, sessionID)

	snapshot, err := o.Snapshot(owner, sessionID)
	require.NoError(t, err)
	*snapshot.Results[0].Output = "tampered"
	snapshot.Results[0].Status = StatusFailed

	fresh, err := o.Snapshot(owner, sessionID)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", *fresh.Results[0].Output)
	assert.Equal(t, StatusCompleted, fresh.Results[0].Status)
}

func TestSnapshot_UnknownSession(t *testing.T) {
	o := newOrchestrator(&fakeRunner{})
	_, err := o.Snapshot(uuid.New(), uuid.New())

	var notFound *ErrSessionNotFound
	require.True(t, errors.As(err, &notFound))
}

func TestSnapshot_ForeignOwnerReadsAsUnknown(t *testing.T) {
	o := newOrchestrator(&fakeRunner{})
	owner := uuid.New()
	sessionID, err := o.Start(owner, uuid.New(), agents.DivisionTactical, "text")
	require.NoError(t, err)
	waitTerminal(t, o, owner, sessionID)

	_, err = o.Snapshot(uuid.New(), sessionID)

	var notFound *ErrSessionNotFound
	require.True(t, errors.As(err, &notFound), "another user's session id must read as unknown")
}
