package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/docketmind/internal/llm"
)

// fakeLLM records calls and returns canned responses.
type fakeLLM struct {
	calls    int
	lastMsgs []llm.Message
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, messages []llm.Message, _ llm.ModelTier) (string, error) {
	f.calls++
	f.lastMsgs = messages
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, messages []llm.Message, tier llm.ModelTier) (string, error) {
	return f.Generate(ctx, messages, tier)
}

func (f *fakeLLM) Close() error { return nil }

func TestDispatch_Success(t *testing.T) {
	fake := &fakeLLM{response: "The motion was denied on procedural grounds."}
	d := NewDispatcher(fake)

	result, err := d.Dispatch(context.Background(), "timeline-auditor", "The court denied the motion.")
	require.NoError(t, err)

	assert.Equal(t, "timeline-auditor", result.AgentID)
	assert.Equal(t, "Timeline Auditor", result.AgentName)
	assert.Equal(t, "The motion was denied on procedural grounds.", result.Output)

	// Exchange is exactly [system persona, user input]
	require.Len(t, fake.lastMsgs, 2)
	assert.Equal(t, llm.RoleSystem, fake.lastMsgs[0].Role)
	assert.Equal(t, timelineAuditorPrompt, fake.lastMsgs[0].Content)
	assert.Equal(t, llm.RoleUser, fake.lastMsgs[1].Role)
	assert.Equal(t, "The court denied the motion.", fake.lastMsgs[1].Content)
}

func TestDispatch_UnknownAgentMakesNoNetworkCall(t *testing.T) {
	fake := &fakeLLM{}
	d := NewDispatcher(fake)

	_, err := d.Dispatch(context.Background(), "no-such-agent", "some text")

	var notFound *ErrAgentNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Zero(t, fake.calls, "registry miss must not reach the provider")
}

func TestDispatch_EmptyInputRejectedBeforeCall(t *testing.T) {
	fake := &fakeLLM{}
	d := NewDispatcher(fake)

	_, err := d.Dispatch(context.Background(), "precedent-scout", "   \n\t")

	var empty *ErrEmptyInput
	require.True(t, errors.As(err, &empty))
	assert.Zero(t, fake.calls)
}

func TestDispatch_ProviderErrorPropagatesUntouched(t *testing.T) {
	providerErr := &llm.ProviderError{Op: "generate", Err: fmt.Errorf("upstream 503")}
	fake := &fakeLLM{err: providerErr}
	d := NewDispatcher(fake)

	_, err := d.Dispatch(context.Background(), "precedent-scout", "text")

	assert.ErrorIs(t, err, providerErr)
	assert.Equal(t, 1, fake.calls, "no automatic retry")
}
