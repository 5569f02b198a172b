// Package llm provides the LLM client abstraction used by agent dispatch,
// document processing, and report summarization.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Role tags a message in an exchange.
type Role string

// Message roles. The system message carries the agent persona; the user
// message carries the document text or dispatch input.
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single role-tagged message in an exchange.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Client is an abstraction over LLM providers.
type Client interface {
	// Generate produces free-form text from an ordered message exchange.
	Generate(ctx context.Context, messages []Message, tier ModelTier) (string, error)
	// GenerateJSON produces JSON output from an ordered message exchange.
	// The provider is asked to constrain output to JSON; callers must still
	// run the result through schemas.DecodeValidated before trusting it.
	GenerateJSON(ctx context.Context, messages []Message, tier ModelTier) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// NewClient creates a new LLM client based on configuration.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return NewGeminiClient(ctx, config, apiKey)
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ProviderError{Op: "connect", Err: err}
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Generate produces free-form text from an ordered message exchange.
func (c *GeminiClient) Generate(ctx context.Context, messages []Message, tier ModelTier) (string, error) {
	return c.generate(ctx, messages, tier, false)
}

// GenerateJSON produces JSON output from an ordered message exchange.
func (c *GeminiClient) GenerateJSON(ctx context.Context, messages []Message, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, messages, tier, true)
	if err != nil {
		return "", err
	}
	// LLMs wrap JSON in markdown fences even when told not to
	return CleanJSONBlock(text), nil
}

func (c *GeminiClient) generate(ctx context.Context, messages []Message, tier ModelTier, jsonMode bool) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	system, user, err := splitMessages(messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", &ProviderError{Op: "generate", Err: err}
	}

	return extractTextFromResponse(resp)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitMessages separates an exchange into the provider's system instruction
// and a single concatenated user prompt.
func splitMessages(messages []Message) (system, user string, err error) {
	var systemParts, userParts []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleUser:
			userParts = append(userParts, m.Content)
		default:
			return "", "", fmt.Errorf("unknown message role: %s", m.Role)
		}
	}
	if len(userParts) == 0 {
		return "", "", fmt.Errorf("exchange has no user message")
	}
	return strings.Join(systemParts, "\n\n"), strings.Join(userParts, "\n\n"), nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &ProviderError{Op: "generate", Err: fmt.Errorf("no candidates in response")}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ProviderError{Op: "generate", Err: fmt.Errorf("no content in response")}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &ProviderError{Op: "generate", Err: fmt.Errorf("no text parts in response")}
	}

	return strings.Join(parts, ""), nil
}
