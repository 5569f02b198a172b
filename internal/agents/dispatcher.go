package agents

import (
	"context"
	"strings"

	"github.com/dmarsh/docketmind/internal/llm"
)

// DispatchResult is the outcome of a single-agent dispatch.
type DispatchResult struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Output    string `json:"output"`
}

// Dispatcher routes user text to one agent persona via the LLM client.
type Dispatcher struct {
	llm  llm.Client
	tier llm.ModelTier
}

// NewDispatcher creates a dispatcher backed by the given LLM client.
func NewDispatcher(client llm.Client) *Dispatcher {
	return &Dispatcher{
		llm:  client,
		tier: llm.TierStandard,
	}
}

// Dispatch resolves the agent, builds the two-message exchange (persona as
// system, input as user), and returns the raw free-text output. The agent
// lookup happens before any network call; provider failures propagate as-is
// with no retry.
func (d *Dispatcher) Dispatch(ctx context.Context, agentID, input string) (*DispatchResult, error) {
	agent, err := ByID(agentID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input) == "" {
		return nil, &ErrEmptyInput{}
	}

	output, err := d.llm.Generate(ctx, []llm.Message{
		llm.SystemMessage(agent.SystemPrompt),
		llm.UserMessage(input),
	}, d.tier)
	if err != nil {
		return nil, err
	}

	return &DispatchResult{
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Output:    output,
	}, nil
}
