package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/llm"
	"github.com/dmarsh/docketmind/internal/schemas"
)

const mockPayload = `{
	"summary": "The court denied the motion.",
	"jester": {"memeCaption": "Denied.", "videoScript": "Scene one.", "socialPost": "Big denial energy."},
	"arbiter": {"violations": ["late service"], "citations": ["Rule 5"], "analysis": "Procedural denial."},
	"merchant": {"productName": "Denial Tee", "productDescription": "A shirt.", "productLink": "https://shop.example/denial"}
}`

// memStore is an in-memory DocumentStore with the same claim semantics as
// the SQL conditional update.
type memStore struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]*db.Document
	outputs map[uuid.UUID]*db.AgentOutputInput
	upserts int
}

func newMemStore() *memStore {
	return &memStore{
		docs:    make(map[uuid.UUID]*db.Document),
		outputs: make(map[uuid.UUID]*db.AgentOutputInput),
	}
}

func (m *memStore) addDocument(ownerID uuid.UUID, status db.DocumentStatus) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.docs[id] = &db.Document{ID: id, OwnerID: ownerID, Status: status}
	return id
}

func (m *memStore) GetDocument(_ context.Context, ownerID, id uuid.UUID) (*db.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (m *memStore) ClaimForProcessing(_ context.Context, ownerID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID || !doc.CanProcess() {
		return false, nil
	}
	doc.Status = db.StatusProcessing
	return true, nil
}

func (m *memStore) SetDocumentStatus(_ context.Context, id uuid.UUID, status db.DocumentStatus, summary *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	doc.Status = status
	if summary != nil {
		doc.Summary = summary
	}
	return nil
}

func (m *memStore) UpsertAgentOutput(_ context.Context, documentID uuid.UUID, input *db.AgentOutputInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[documentID] = input
	m.upserts++
	return nil
}

func (m *memStore) status(id uuid.UUID) db.DocumentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id].Status
}

// fakeLLM returns a canned JSON payload or error.
type fakeLLM struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, _ []llm.Message, _ llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, msgs []llm.Message, tier llm.ModelTier) (string, error) {
	return f.Generate(ctx, msgs, tier)
}

func (f *fakeLLM) Close() error { return nil }

func TestProcess_Success(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	p := New(store, &fakeLLM{response: mockPayload})

	result, err := p.Process(context.Background(), owner, docID, "The court denied the motion.")
	require.NoError(t, err)

	assert.Equal(t, "The court denied the motion.", result.Summary)
	assert.Equal(t, db.StatusCompleted, store.status(docID))

	out := store.outputs[docID]
	require.NotNil(t, out)
	assert.Equal(t, "Denied.", out.JesterMemeCaption)
	assert.Equal(t, `["late service"]`, out.ArbiterViolations)
	assert.Equal(t, `["Rule 5"]`, out.ArbiterCitations)
	assert.Equal(t, "Denial Tee", out.MerchantProductName)
}

func TestProcess_SchemaFailureMarksFailedWithoutOutput(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	p := New(store, &fakeLLM{response: `{"not": "the schema"}`})

	_, err := p.Process(context.Background(), owner, docID, "text")

	var ve *schemas.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, db.StatusFailed, store.status(docID), "document must not be stuck in processing")
	assert.Empty(t, store.outputs, "no partial output on schema failure")
}

func TestProcess_ProviderFailureMarksFailed(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	providerErr := &llm.ProviderError{Op: "generate", Err: errors.New("timeout")}
	p := New(store, &fakeLLM{err: providerErr})

	_, err := p.Process(context.Background(), owner, docID, "text")

	assert.True(t, llm.IsProviderError(err))
	assert.Equal(t, db.StatusFailed, store.status(docID))
	assert.Empty(t, store.outputs)
}

func TestProcess_EmptyTextRejectedBeforeAnyCall(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	fake := &fakeLLM{response: mockPayload}
	p := New(store, fake)

	_, err := p.Process(context.Background(), owner, docID, "  \n")

	var empty *ErrEmptyText
	require.True(t, errors.As(err, &empty))
	assert.Zero(t, fake.calls)
	assert.Equal(t, db.StatusPending, store.status(docID), "rejected request must not touch status")
}

func TestProcess_UnknownOrForeignDocument(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	p := New(store, &fakeLLM{response: mockPayload})

	_, err := p.Process(context.Background(), uuid.New(), docID, "text")

	var notFound *ErrDocumentNotFound
	require.True(t, errors.As(err, &notFound), "foreign document must read as not found")
}

func TestProcess_CompletedDocumentRejected(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusCompleted)
	p := New(store, &fakeLLM{response: mockPayload})

	_, err := p.Process(context.Background(), owner, docID, "text")

	var already *ErrAlreadyProcessing
	require.True(t, errors.As(err, &already))
	assert.Equal(t, db.StatusCompleted, already.Status)
}

func TestProcess_FailedDocumentCanBeReprocessed(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusFailed)
	p := New(store, &fakeLLM{response: mockPayload})

	_, err := p.Process(context.Background(), owner, docID, "text")
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, store.status(docID))
}

// racingStore loses the claim by letting a concurrent winner move the
// document to processing between the initial read and the claim.
type racingStore struct {
	*memStore
}

func (r *racingStore) ClaimForProcessing(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	if err := r.memStore.SetDocumentStatus(ctx, id, db.StatusProcessing, nil); err != nil {
		return false, err
	}
	return r.memStore.ClaimForProcessing(ctx, ownerID, id)
}

func TestProcess_ClaimRaceReportsCurrentStatus(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	p := New(&racingStore{memStore: store}, &fakeLLM{response: mockPayload})

	_, err := p.Process(context.Background(), owner, docID, "text")

	var already *ErrAlreadyProcessing
	require.True(t, errors.As(err, &already))
	assert.Equal(t, db.StatusProcessing, already.Status, "the error carries the status that blocked the claim, not the pending one read earlier")
}

// ctxLLM fails when its call context is already cancelled.
type ctxLLM struct {
	fakeLLM
}

func (c *ctxLLM) GenerateJSON(ctx context.Context, msgs []llm.Message, tier llm.ModelTier) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.fakeLLM.GenerateJSON(ctx, msgs, tier)
}

func TestProcess_CallerDisconnectDoesNotFailClaimedDocument(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	p := New(store, &ctxLLM{fakeLLM{response: mockPayload}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the caller is already gone

	result, err := p.Process(ctx, owner, docID, "text")
	require.NoError(t, err)
	assert.Equal(t, "The court denied the motion.", result.Summary)
	assert.Equal(t, db.StatusCompleted, store.status(docID))
}

func TestProcess_ConcurrentCallsCreateExactlyOneOutput(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	docID := store.addDocument(owner, db.StatusPending)
	p := New(store, &fakeLLM{response: mockPayload})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.Process(context.Background(), owner, docID, "text")
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var already *ErrAlreadyProcessing
		if errors.As(err, &already) {
			rejected++
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one call wins the claim")
	assert.Equal(t, 1, rejected, "the loser observes the already-processing rejection")
	assert.Equal(t, 1, store.upserts, "exactly one agent output row is written")
}
