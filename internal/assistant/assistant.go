// Package assistant answers free-text questions about a collected snapshot
// by sending a condensed summary and the question to a language model.
package assistant

import (
	"context"
	"strings"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/llm"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/report"
)

// Completer is the part of llm.Client the assistant needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
	Stream(ctx context.Context, req llm.Request, onDelta func(string)) (*llm.Response, error)
}

// Assistant asks questions about one document.
type Assistant struct {
	cfg    config.AssistantConfig
	client Completer
	log    logger.Logger
}

// New creates an assistant talking to cfg.BaseURL. It fails with a CONFIG
// error when no API key is configured, before anything touches the network.
func New(cfg config.AssistantConfig, log logger.Logger) (*Assistant, error) {
	if err := config.RequireCredentials(cfg); err != nil {
		return nil, err
	}
	client := llm.NewClient(llm.ClientOptions{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Organization: cfg.Organization,
	})
	return NewWithClient(cfg, client, log), nil
}

// NewWithClient creates an assistant using an existing client.
func NewWithClient(cfg config.AssistantConfig, client Completer, log logger.Logger) *Assistant {
	if log == nil {
		log = logger.Noop()
	}
	return &Assistant{cfg: cfg, client: client, log: log}
}

// Ask sends question with a summary of doc and returns the answer. When
// streaming is enabled onDelta receives the answer as it arrives; it may
// be nil. The whole call is bounded by the configured timeout.
func (a *Assistant) Ask(ctx context.Context, doc report.Document, question string, onDelta func(string)) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New(errors.ErrConfig, "The question is empty", "Ask something, like: sysinsight ask \"why is my fan loud?\"")
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	msgs := BuildMessages(a.systemPrompt(), doc, question, a.cfg.MaxPromptBytes)
	req := llm.Request{Model: a.cfg.Model, Messages: msgs, MaxTokens: a.cfg.MaxTokens}
	a.log.Debug("asking %s: %d messages, %d prompt bytes", a.cfg.Model, len(msgs), PromptBytes(msgs))

	var resp *llm.Response
	var err error
	if a.cfg.Stream {
		resp, err = a.client.Stream(ctx, req, onDelta)
	} else {
		resp, err = a.client.Complete(ctx, req)
	}
	if err != nil {
		return "", err
	}

	a.log.Debug("answer from %s: finish=%s prompt_tokens=%d completion_tokens=%d",
		resp.Model, resp.FinishReason, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", errors.NewRemote(0, nil, "The language model returned an empty answer", "Try rephrasing the question.")
	}
	return answer, nil
}

func (a *Assistant) systemPrompt() string {
	if a.cfg.SystemPrompt != "" {
		return a.cfg.SystemPrompt
	}
	return config.DefaultSystemPrompt
}
