package test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"google.golang.org/genai"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func NewRefString(data string) *string {
	return &data
}

func InternalRequestJSON(e *echo.Echo, method string, url string, param interface{}) (int, []byte) {
	req := NewJSONRequest(method, url, param)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	if rec.Code > 300 {
		log.Printf("%s", rec.Body.String())
	}
	return rec.Code, rec.Body.Bytes()
}

// PNGBytes renders a solid w x h PNG.
func PNGBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Fatalf("Error encoding test png %s", err)
	}
	return buf.Bytes()
}

func PNGBase64(w, h int) string {
	return base64.StdEncoding.EncodeToString(PNGBytes(w, h))
}

// HapticsReply is a typical model answer with a fenced JSON block.
const HapticsReply = "Here is your look.\n```json\n{\"comfort\":\"Soft\",\"weight\":\"Light\",\"touch\":\"Smooth\",\"breathability\":\"High\",\"scores\":{\"comfort\":8,\"heaviness\":3,\"softness\":9,\"breathability\":7,\"elasticity\":6}}\n```"

// FakeContentGenerator stands in for genai.Models.
type FakeContentGenerator struct {
	mu           sync.Mutex
	Response     *genai.GenerateContentResponse
	Err          error
	Calls        int
	LastModel    string
	LastContents []*genai.Content
	LastConfig   *genai.GenerateContentConfig
}

func (f *FakeContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastModel = model
	f.LastContents = contents
	f.LastConfig = config
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Response, nil
}

// GenaiResponse builds a one candidate response from text and inline images.
func GenaiResponse(text string, images ...[]byte) *genai.GenerateContentResponse {
	var parts []*genai.Part
	for _, img := range images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: img}})
	}
	if text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 20,
			TotalTokenCount:      30,
		},
	}
}

type RecordedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// ChatServerMock is an OpenAI Chat compatible upstream answering every
// request with Status and Body.
type ChatServerMock struct {
	mu          sync.Mutex
	Status      int
	Body        string
	ContentType string
	Requests    []RecordedRequest
}

func (m *ChatServerMock) Start() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.Requests = append(m.Requests, RecordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		status, responseBody, contentType := m.Status, m.Body, m.ContentType
		m.mu.Unlock()

		if contentType == "" {
			contentType = "application/json"
		}
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		w.Write([]byte(responseBody))
	}))
}

func (m *ChatServerMock) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *ChatServerMock) LastRequest() RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return RecordedRequest{}
	}
	return m.Requests[len(m.Requests)-1]
}

// ChatCompletionBody is a chat completion reply carrying content.
func ChatCompletionBody(content string) string {
	return JsonString(map[string]interface{}{
		"id": "chatcmpl-1",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	})
}
