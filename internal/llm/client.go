package llm

import (
	"context"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "openai/gpt-oss-120b"
	DefaultMaxTokens = 2200
)

// Message is a role-tagged chat message.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

func System(content string) Message { return Message{Role: openai.ChatMessageRoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: openai.ChatMessageRoleUser, Content: content} }

// Completion is the generated text plus the finish reason reported by the
// endpoint.
type Completion struct {
	Text         string
	FinishReason string
}

// Truncated reports whether the model stopped because it ran out of tokens.
func (c Completion) Truncated() bool {
	switch strings.ToLower(strings.TrimSpace(c.FinishReason)) {
	case "length", "max_tokens":
		return true
	default:
		return false
	}
}

// Client is the only I/O boundary of the reasoning pipeline.
type Client interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
}

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// OpenAIClient calls any OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient constructs a client, falling back to the Groq base URL and
// model when they are left empty.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) Model() string { return c.model }

// Complete sends the messages with a deterministic temperature and returns the
// first choice.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (Completion, error) {
	if c.client == nil {
		return Completion{}, errors.New("openai client not initialized")
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
		// temperature is omitempty in the request struct, so a literal 0 would
		// be dropped and the server default (1.0) used instead.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return Completion{}, errors.Wrapf(err, "chat completion (model %s)", c.model)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, nil
	}
	choice := resp.Choices[0]
	return Completion{
		Text:         strings.TrimSpace(choice.Message.Content),
		FinishReason: string(choice.FinishReason),
	}, nil
}

// Ping lists the available models; used by the readiness probe.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return errors.Wrap(err, "list models")
	}
	return nil
}
