package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/storefront/backend/internal/domain/recommendation"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxResponseSize limits the size of response bodies (1MB)
const maxResponseSize = 1 << 20

// Errors returned by the client
var (
	ErrUnavailable     = errors.New("llm: endpoint unavailable")
	ErrRequestFailed   = errors.New("llm: request failed")
	ErrInvalidResponse = errors.New("llm: invalid response")
)

const promptTemplate = `These are the available relevant products:
%s

---
Recommend a list of products to the user. Return a list of products with its product ID and product name in JSON format. Example of JSON output:
{
    "products": [
        {"id": 2323, "name": "product name of 2323"},
        {"id": 973, "name": "product name of 973"}
    ]
}
Recommend products based on the user's request:
%s`

// Client calls an OpenAI-compatible chat-completions endpoint
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config == nil {
		return nil, ErrConfigMissingAPIKey
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: *config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("llm"),
	}, nil
}

// Recommend asks the model for products matching request and parses the
// {"products":[{"id":..,"name":..}]} object it returns.
func (c *Client) Recommend(ctx context.Context, catalogSnapshot, request string) ([]recommendation.Recommendation, error) {
	content, err := c.complete(ctx, fmt.Sprintf(promptTemplate, catalogSnapshot, request))
	if err != nil {
		return nil, err
	}

	var payload recommendationPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("%w: model output is not JSON: %v", ErrInvalidResponse, err)
	}

	out := make([]recommendation.Recommendation, 0, len(payload.Products))
	for _, p := range payload.Products {
		out = append(out, recommendation.Recommendation{ID: int64(p.ID), Name: p.Name})
	}
	c.logger.Debug("recommendations received", zap.Int("count", len(out)))
	return out, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.config.Model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    c.config.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("llm: failed to encode request: %w", err)
	}

	url := strings.TrimRight(c.config.Endpoint, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("llm: failed to read response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrInvalidResponse, decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// stripCodeFence removes a surrounding ```json fence some models add
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// flexibleID accepts ids encoded as JSON numbers or numeric strings
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %s", string(data))
	}
	*f = flexibleID(n)
	return nil
}

var _ recommendation.Recommender = (*Client)(nil)
