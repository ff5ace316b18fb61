// Package llm is a small client for OpenAI-compatible chat-completions
// APIs. It sends one conversation per call and reads the answer either in
// one piece or as a Server-Sent Events stream.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rileyhilliard/sysinsight/internal/errors"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 4096

// Roles used in Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat-completions call.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Usage reports token counts when the service returns them.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Response is the assistant's answer.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// ClientOptions configure a Client.
type ClientOptions struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL      string
	APIKey       string
	Organization string
	// HTTPClient defaults to http.DefaultClient. Timeouts come from the
	// request context.
	HTTPClient *http.Client
}

// Client talks to one chat-completions endpoint.
type Client struct {
	httpClient   *http.Client
	endpoint     string
	apiKey       string
	organization string
}

// NewClient creates a client for opts.BaseURL.
func NewClient(opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		httpClient:   hc,
		endpoint:     strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
		apiKey:       opts.APIKey,
		organization: opts.Organization,
	}
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Complete sends req and waits for the whole answer.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	httpResp, err := c.do(ctx, c.buildRequest(req, false), false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var wire chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, errors.NewRemote(httpResp.StatusCode, err,
			"Couldn't decode the language model response",
			"Check that assistant.base_url points at an OpenAI-compatible API.")
	}

	resp := &Response{
		Model: wire.Model,
		Usage: Usage{PromptTokens: wire.Usage.PromptTokens, CompletionTokens: wire.Usage.CompletionTokens},
	}
	if len(wire.Choices) > 0 {
		resp.Content = wire.Choices[0].Message.Content
		resp.FinishReason = wire.Choices[0].FinishReason
	}
	return resp, nil
}

// Stream sends req with streaming enabled. onDelta is called with each
// chunk of text as it arrives; the assembled answer is returned at the end.
func (c *Client) Stream(ctx context.Context, req Request, onDelta func(string)) (*Response, error) {
	httpResp, err := c.do(ctx, c.buildRequest(req, true), true)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var content strings.Builder
	resp := &Response{}
	scanner := NewSSEScanner(httpResp.Body)

	for scanner.Next() {
		data := scanner.Event().Data
		if data == "[DONE]" {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, errors.NewRemote(httpResp.StatusCode, err,
				"Couldn't parse the language model stream", "")
		}

		// Errors mid-stream arrive as a data line with an "error" object.
		if chunk.Error != nil && chunk.Error.Message != "" {
			return nil, errors.NewRemote(httpResp.StatusCode,
				fmt.Errorf("%s: %s", chunk.Error.Type, chunk.Error.Message),
				"Language model stream failed", "")
		}

		if resp.Model == "" {
			resp.Model = chunk.Model
		}
		if chunk.Usage != nil {
			resp.Usage = Usage{PromptTokens: chunk.Usage.PromptTokens, CompletionTokens: chunk.Usage.CompletionTokens}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if delta := choice.Delta.Content; delta != "" {
			content.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
		if choice.FinishReason != nil {
			resp.FinishReason = *choice.FinishReason
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, transportError(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError(ctx, err)
	}

	resp.Content = content.String()
	return resp, nil
}

func (c *Client) buildRequest(req Request, stream bool) chatRequest {
	wire := chatRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
	}
	if stream {
		wire.Stream = true
		wire.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return wire
}

// do posts the request and returns the response when the status is 200.
// Any other outcome is a REMOTE error.
func (c *Client) do(ctx context.Context, wire chatRequest, streaming bool) (*http.Response, error) {
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, errors.NewRemote(0, err, "Couldn't encode the language model request", "")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewRemote(0, err,
			fmt.Sprintf("Invalid language model endpoint %s", c.endpoint),
			"Check assistant.base_url in your config.")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		return nil, statusError(httpResp)
	}
	return httpResp, nil
}

// statusError turns a non-200 response into a REMOTE error, using the
// {"error":{"type","message"}} body when the service sends one.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	detail := strings.TrimSpace(string(body))
	var wire struct {
		Error apiError `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Error.Message != "" {
		detail = wire.Error.Message
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	return errors.NewRemote(resp.StatusCode,
		stderrors.New(detail),
		fmt.Sprintf("Language model request failed with HTTP %d", resp.StatusCode),
		statusSuggestion(resp.StatusCode))
}

func statusSuggestion(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "Check OPENAI_API_KEY (and OPENAI_API_ORG_ID if you set one)."
	case status == http.StatusNotFound:
		return "Check assistant.model and assistant.base_url."
	case status == http.StatusTooManyRequests:
		return "You're being rate limited. Wait a moment and try again."
	case status >= 500:
		return "The service is having trouble. Try again later."
	}
	return ""
}

func transportError(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewRemote(0, err,
			"Language model request timed out",
			"Raise assistant.timeout or try a shorter question.")
	}
	if stderrors.Is(ctx.Err(), context.Canceled) {
		return errors.NewRemote(0, err, "Language model request cancelled", "")
	}
	return errors.NewRemote(0, err,
		"Couldn't reach the language model service",
		"Check your network connection and assistant.base_url.")
}

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage usage `json:"usage"`
}

type chatStreamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage    `json:"usage,omitempty"`
	Error *apiError `json:"error,omitempty"`
}
