// Package openai implements engine.TaskExecutor on top of OpenAI chat
// completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/meikuraledutech/flow"
)

// ErrMissingAPIKey is returned when the executor has no credentials.
var ErrMissingAPIKey = errors.New("openai: api key is required")

const (
	DefaultModel   = goopenai.GPT3Dot5Turbo
	DefaultTimeout = 60 * time.Second
)

type taskProfile struct {
	systemPrompt string
	maxTokens    int
	empty        string
}

var profiles = map[flow.TaskType]taskProfile{
	flow.TaskSummarize: {"Summarize the following text concisely:", 500, "No summary generated"},
	flow.TaskAnalyze:   {"Analyze the following text and provide insights:", 800, "No analysis generated"},
	flow.TaskTransform: {"Transform the following text:", 800, "No transformation generated"},
}

// Option configures an Executor.
type Option func(*Executor)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(e *Executor) {
		if model != "" {
			e.model = model
		}
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(e *Executor) { e.baseURL = url }
}

// WithTimeout bounds each completion request.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Executor runs summarize, analyze and transform tasks as chat completions.
type Executor struct {
	client  *goopenai.Client
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
}

// New creates an Executor. It returns ErrMissingAPIKey if apiKey is empty.
func New(apiKey string, opts ...Option) (*Executor, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	e := &Executor{apiKey: apiKey, model: DefaultModel, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if e.baseURL != "" {
		cfg.BaseURL = e.baseURL
	}
	e.client = goopenai.NewClientWithConfig(cfg)
	return e, nil
}

// Ready reports whether the executor has credentials.
func (e *Executor) Ready() error {
	if e == nil || e.client == nil || e.apiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Execute sends input as the user message. prompt replaces the task type's
// default system prompt when set. call-api and unknown task types fail.
func (e *Executor) Execute(ctx context.Context, taskType flow.TaskType, input, prompt string) (string, error) {
	if err := e.Ready(); err != nil {
		return "", err
	}
	profile, ok := profiles[taskType]
	if !ok {
		return "", fmt.Errorf("unsupported task type: %s", taskType)
	}
	system := profile.systemPrompt
	if prompt != "" {
		system = prompt
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: e.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: input},
		},
		MaxTokens: profile.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %s: %w", taskType, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return profile.empty, nil
	}
	return resp.Choices[0].Message.Content, nil
}
