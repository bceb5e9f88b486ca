package bedrock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	backendhttp "github.com/smartreview/detection/internal/adapter/backend/http"
	"github.com/smartreview/detection/internal/usecase/invoke"
)

const (
	defaultBaseURL = "https://bedrock-runtime.us-east-1.amazonaws.com"
	defaultTimeout = 60 * time.Second

	backendName = "bedrock"
)

// Client talks to the Bedrock runtime Converse API over HTTP. It classifies
// failures but never retries; retry policy belongs to the caller.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a Bedrock runtime client authenticated with a bearer
// API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
	c.client.Timeout = timeout
}

// Generate sends one Converse request for the given model and prompt.
func (c *Client) Generate(ctx context.Context, req invoke.GenerationRequest) (invoke.Generation, error) {
	body := converseRequest{
		Messages: []message{
			{
				Role:    "user",
				Content: []contentBlock{{Text: req.Prompt}},
			},
		},
		InferenceConfig: &inferenceConfig{
			MaxTokens:     req.MaxTokens,
			Temperature:   req.Temperature,
			TopP:          req.TopP,
			StopSequences: req.StopSequences,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return invoke.Generation{}, backendhttp.NewClientError(backendName, fmt.Sprintf("failed to marshal request: %v", err))
	}

	endpoint := fmt.Sprintf("%s/model/%s/converse", c.baseURL, url.PathEscape(req.ModelID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return invoke.Generation{}, backendhttp.NewClientError(backendName, fmt.Sprintf("failed to create request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return invoke.Generation{}, ctxErr
		}
		return invoke.Generation{}, backendhttp.NewTimeoutError(backendName, err.Error())
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return invoke.Generation{}, backendhttp.NewClientError(backendName, fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode >= 400 {
		return invoke.Generation{}, classifyError(resp.StatusCode, bodyBytes)
	}

	var converseResp converseResponse
	if err := json.Unmarshal(bodyBytes, &converseResp); err != nil {
		return invoke.Generation{}, backendhttp.NewClientError(backendName, fmt.Sprintf("failed to parse response: %v", err))
	}

	var textParts []string
	for _, block := range converseResp.Output.Message.Content {
		if block.Text != "" {
			textParts = append(textParts, block.Text)
		}
	}
	if len(textParts) == 0 {
		return invoke.Generation{}, backendhttp.NewClientError(backendName, "no content in response")
	}

	totalTokens := converseResp.Usage.TotalTokens
	if totalTokens == 0 {
		totalTokens = converseResp.Usage.InputTokens + converseResp.Usage.OutputTokens
	}

	return invoke.Generation{
		Text:         strings.Join(textParts, ""),
		InputTokens:  converseResp.Usage.InputTokens,
		OutputTokens: converseResp.Usage.OutputTokens,
		TotalTokens:  totalTokens,
		ModelID:      req.ModelID,
	}, nil
}

// classifyError maps HTTP status codes to typed backend errors.
func classifyError(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}

	var classified *backendhttp.Error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		classified = backendhttp.NewAccessDeniedError(backendName, message)
	case http.StatusNotFound:
		classified = backendhttp.NewModelNotFoundError(backendName, message)
	case http.StatusBadRequest:
		classified = backendhttp.NewInvalidRequestError(backendName, message)
	case http.StatusTooManyRequests:
		classified = backendhttp.NewRateLimitError(backendName, message)
	case http.StatusRequestTimeout:
		classified = backendhttp.NewTimeoutError(backendName, message)
	default:
		if statusCode >= 500 {
			classified = backendhttp.NewServiceUnavailableError(backendName, message)
		} else {
			classified = backendhttp.NewClientError(backendName, message)
		}
	}
	classified.StatusCode = statusCode
	return classified
}
