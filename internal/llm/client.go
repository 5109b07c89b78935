// Package llm wraps the chat-completion endpoint used by the AI, wellness,
// social and support procedures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthbuddy/internal/observability"

	"github.com/sashabaranov/go-openai"
)

// Roles of a chat message.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ErrNotConfigured is returned by the disabled client when no API key is set.
var ErrNotConfigured = errors.New("llm: no API key configured")

// Message is one turn of a chat.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion call. Persona labels metrics and spans only.
type Request struct {
	Persona  string
	Messages []Message
}

// Client produces one assistant reply for a prompt. An empty reply is not an error.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config holds connection settings for an OpenAI-compatible endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New returns an OpenAIClient, or a client that always fails with
// ErrNotConfigured when no API key is set.
func New(cfg Config) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return disabledClient{}
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &OpenAIClient{
		api:     openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Complete sends the messages and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	persona := req.Persona
	if persona == "" {
		persona = "default"
	}
	done := observability.TrackLLM(persona)

	span, ctx := observability.StartClientSpan(ctx, "llm", "chat.completions")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		span.SetError(err)
		done("error")
		return "", fmt.Errorf("llm completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		done("empty")
		return "", nil
	}

	done("ok")
	return resp.Choices[0].Message.Content, nil
}

type disabledClient struct{}

func (disabledClient) Complete(_ context.Context, req Request) (string, error) {
	persona := req.Persona
	if persona == "" {
		persona = "default"
	}
	observability.LLMCompletions.WithLabelValues(persona, "unconfigured").Inc()
	return "", ErrNotConfigured
}

// Prompt builds the usual system + user exchange.
func Prompt(persona, system, user string) Request {
	return Request{
		Persona: persona,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
	}
}
