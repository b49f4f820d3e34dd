package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/resilience"
)

const (
	payloadText      = "text"
	payloadNamespace = "namespace"
)

// Client searches a pre-built Qdrant collection. Knowledge sources share the collection and are
// separated by the "namespace" payload field.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, collection string) *Client {
	return NewWithOptions(baseURL, collection, Options{})
}

func NewWithOptions(baseURL, collection string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	namespace string,
) ([]domain.Passage, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("qdrant search: empty query vector")
	}
	if limit <= 0 {
		limit = 4
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if namespace != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": payloadNamespace,
					"match": map[string]any{
						"value": namespace,
					},
				},
			},
		}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	call := func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/points/search", body, &searchResp, "search")
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant.search", call, classifyQdrantError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("qdrant search", err)
	}

	out := make([]domain.Passage, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.Passage{
			Text:     getStringPayload(r.Payload, payloadText),
			Metadata: payloadMetadata(r.Payload),
			Score:    r.Score,
		})
	}
	return out, nil
}

// Ready reports whether the collection exists.
func (c *Client) Ready(ctx context.Context) error {
	var info struct {
		Status string `json:"status"`
	}
	return c.doJSON(ctx, http.MethodGet, "", nil, &info, "collection info")
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any, operation string) error {
	url := fmt.Sprintf("%s/collections/%s%s", c.baseURL, c.collection, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("qdrant", operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func payloadMetadata(payload map[string]any) map[string]string {
	meta := make(map[string]string, len(payload))
	for key := range payload {
		if key == payloadText || key == payloadNamespace {
			continue
		}
		if value := getStringPayload(payload, key); value != "" {
			meta[key] = value
		}
	}
	return meta
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	return resilience.ClassifyHTTPError(err)
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	return resilience.WrapTemporary(operation, err, classifyQdrantError)
}
