package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// DefaultOpenAIModel is used when REASONING_MODEL is empty
const DefaultOpenAIModel = "gpt-4o-mini"

const (
	systemPrompt = "You are a Fantasy Premier League assistant. Answer in plain text, at most two sentences, no lists."
	maxTokens    = 120
)

// OpenAIConfig selects an OpenAI compatible chat completions server
type OpenAIConfig struct {
	BaseURL string // 비어 있으면 SDK 기본 URL
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAI asks a chat completions endpoint for the reason
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a chat completions generator. Retries are off; the
// caller falls back to the template instead.
func NewOpenAI(cfg OpenAIConfig, opts ...option.RequestOption) *OpenAI {
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	reqOpts = append(reqOpts, opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), model: model}
}

// WithWait runs wait before every request, e.g. a shared rate limiter
func WithWait(wait func(ctx context.Context) error) option.RequestOption {
	return option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		if err := wait(req.Context()); err != nil {
			return nil, fmt.Errorf("reasoning rate limit: %w", err)
		}
		return next(req)
	})
}

// Reason sends the prompt and both player digests as one user message
func (o *OpenAI) Reason(ctx context.Context, out, in contracts.ScoredPlayer) (string, error) {
	players, err := json.Marshal(map[string]PlayerDigest{"out": digest(out), "in": digest(in)})
	if err != nil {
		return "", err
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt(out, in) + "\n\nPlayers: " + string(players)),
		},
		MaxTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("reasoning %d -> %d: %w", out.ID, in.ID, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReason
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyReason
	}
	return text, nil
}
