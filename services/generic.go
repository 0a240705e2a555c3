package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dopplapi/models"

	"github.com/tidwall/gjson"
)

const (
	completionsSuffix = "/chat/completions"
	defaultMaxTokens  = 4096
	appTitle          = "Doppl-Next VTON"
)

// ChatMessage is one OpenAI Chat message. Content is either a string or a
// list of ChatContentPart.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type ChatImageURL struct {
	URL string `json:"url"`
}

type ChatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ChatImageURL `json:"image_url,omitempty"`
}

type GenericChatRequest struct {
	BaseURL   string
	APIKey    string
	Model     string
	Messages  []ChatMessage
	MaxTokens int
}

type chatCompletionBody struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream"`
}

type connectionProbeBody struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// GenericChatClient talks to any OpenAI Chat compatible endpoint.
type GenericChatClient struct {
	HTTPClient *http.Client
	// Referer is sent as HTTP-Referer, OpenRouter uses it for attribution.
	Referer string
}

func NewGenericChatClient(referer string) *GenericChatClient {
	return &GenericChatClient{HTTPClient: &http.Client{}, Referer: referer}
}

// ConstructEndpoint strips one trailing slash and appends the completions
// suffix unless already present. Applying it twice is a no-op.
func ConstructEndpoint(baseURL string) string {
	endpoint := strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(endpoint, completionsSuffix) {
		endpoint = endpoint + completionsSuffix
	}
	return endpoint
}

func (c *GenericChatClient) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *GenericChatClient) post(ctx context.Context, endpoint, apiKey string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	if c.Referer != "" {
		req.Header.Set("HTTP-Referer", c.Referer)
	}
	req.Header.Set("X-Title", appTitle)
	return c.httpClient().Do(req)
}

// Complete sends one non-streaming chat completion and normalizes the reply.
func (c *GenericChatClient) Complete(ctx context.Context, in GenericChatRequest) (*UniversalResponse, error) {
	if in.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	endpoint := ConstructEndpoint(in.BaseURL)
	fmt.Printf("[Generic] POST %s model=%s messages=%d\n", endpoint, in.Model, len(in.Messages))

	resp, err := c.post(ctx, endpoint, in.APIKey, chatCompletionBody{
		Model:     in.Model,
		Messages:  in.Messages,
		MaxTokens: maxTokens,
		Stream:    false,
	})
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	responseText, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if !json.Valid(responseText) {
		return nil, &NonJSONResponseError{Endpoint: endpoint, Snippet: truncate(string(responseText), 100)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamAPIError{Status: resp.StatusCode, Message: extractErrorMessage(responseText)}
	}
	return NormalizeAPIResponse(responseText)
}

// extractErrorMessage reads error.message, then message, then falls back to
// the whole body.
func extractErrorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message"); isTruthy(msg) {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "message"); isTruthy(msg) {
		return msg.String()
	}
	return strings.TrimSpace(string(body))
}

// TestConnection sends a one token request to check URL, key and model
// before a full generation. It never returns an error; every failure is
// reported in the result.
func (c *GenericChatClient) TestConnection(ctx context.Context, config models.CustomConfig, lang models.Language) models.ConnectionTestResult {
	if !config.IsComplete() {
		return models.ConnectionTestResult{OK: false, Message: localize(lang, msgFillAllFields)}
	}
	endpoint := ConstructEndpoint(config.BaseURL)

	resp, err := c.post(ctx, endpoint, config.APIKey, connectionProbeBody{
		Model:     config.ModelName,
		Messages:  []ChatMessage{{Role: "user", Content: "Hi"}},
		MaxTokens: 1,
	})
	if err != nil {
		fmt.Printf("[Generic] Connection test to %s failed: %v\n", endpoint, err)
		return models.ConnectionTestResult{OK: false, Message: localize(lang, msgNetworkError), Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return models.ConnectionTestResult{OK: false, Message: localize(lang, msgAuthFailed), Detail: localize(lang, msgAuthFailedDetail)}
		case http.StatusNotFound:
			return models.ConnectionTestResult{OK: false, Message: localize(lang, msgNotFound), Detail: localize(lang, msgNotFoundDetail)}
		}
		var errorMsg string
		switch {
		case strings.TrimSpace(string(body)) == "":
			errorMsg = localize(lang, msgHTTPError, resp.StatusCode)
		case json.Valid(body):
			errorMsg = extractErrorMessage(body)
		default:
			errorMsg = localize(lang, msgServerError, truncate(string(body), 50))
		}
		return models.ConnectionTestResult{
			OK:      false,
			Message: localize(lang, msgConnectionFailed, resp.StatusCode),
			Detail:  errorMsg,
		}
	}
	return models.ConnectionTestResult{OK: true, Message: localize(lang, msgConnectionVerified)}
}
