// Package claude completes SmartCare prompts with the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/prompt"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/resilience"
)

type Options struct {
	BaseURL            string
	APIKey             string
	Model              string
	MaxTokens          int64
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

type Completer struct {
	client   *anthropic.Client
	opts     Options
	executor *resilience.Executor
}

func New(options Options) (*Completer, error) {
	if strings.TrimSpace(options.APIKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if strings.TrimSpace(options.Model) == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}
	if options.MaxTokens <= 0 {
		options.MaxTokens = 512
	}
	if options.Timeout <= 0 {
		options.Timeout = 60 * time.Second
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(options.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(options.Timeout),
	}
	if options.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(options.BaseURL))
	}
	client := anthropic.NewClient(requestOptions...)
	return &Completer{
		client:   &client,
		opts:     options,
		executor: options.ResilienceExecutor,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, contextText, question, history string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: c.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompt.System()}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User(contextText, question, history))),
		},
	}

	answer, err := resilience.Do(ctx, c.executor, "anthropic.messages", func(ctx context.Context) (string, error) {
		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic messages: %w", err)
		}
		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		return strings.TrimSpace(text.String()), nil
	}, classifyAnthropicError)
	if err != nil {
		return "", resilience.WrapTemporary("anthropic messages", err, classifyAnthropicError)
	}
	return answer, nil
}

func classifyAnthropicError(err error) resilience.ErrorClassification {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		// 529 is Anthropic's overloaded status.
		if resilience.IsRetryableHTTPStatus(apiErr.StatusCode) || apiErr.StatusCode == 529 {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{}
	}
	return resilience.ClassifyHTTPError(err)
}
