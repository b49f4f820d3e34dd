// Package openaicompat talks to any OpenAI-compatible chat completions endpoint (Groq, OpenAI, vLLM).
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/prompt"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/resilience"
)

// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

type Options struct {
	BaseURL            string
	APIKey             string
	Model              string
	Temperature        float64
	MaxTokens          int64
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

type Completer struct {
	client   *openai.Client
	opts     Options
	executor *resilience.Executor
}

func New(options Options) (*Completer, error) {
	if strings.TrimSpace(options.APIKey) == "" {
		return nil, fmt.Errorf("openai-compatible api key is required")
	}
	if strings.TrimSpace(options.Model) == "" {
		return nil, fmt.Errorf("openai-compatible model is required")
	}
	if options.BaseURL == "" {
		options.BaseURL = GroqBaseURL
	}
	if options.MaxTokens <= 0 {
		options.MaxTokens = 512
	}
	if options.Timeout <= 0 {
		options.Timeout = 60 * time.Second
	}

	client := openai.NewClient(
		option.WithBaseURL(options.BaseURL),
		option.WithAPIKey(options.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(options.Timeout),
	)
	return &Completer{
		client:   &client,
		opts:     options,
		executor: options.ResilienceExecutor,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, contextText, question, history string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System()),
			openai.UserMessage(prompt.User(contextText, question, history)),
		},
		Temperature: openai.Float(c.opts.Temperature),
		MaxTokens:   openai.Int(c.opts.MaxTokens),
	}

	answer, err := resilience.Do(ctx, c.executor, "openai.chat", func(ctx context.Context) (string, error) {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("openai chat completion: no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}, classifyOpenAIError)
	if err != nil {
		return "", resilience.WrapTemporary("openai chat", err, classifyOpenAIError)
	}
	return answer, nil
}

func classifyOpenAIError(err error) resilience.ErrorClassification {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if resilience.IsRetryableHTTPStatus(apiErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
		}
		return resilience.ErrorClassification{}
	}
	return resilience.ClassifyHTTPError(err)
}
