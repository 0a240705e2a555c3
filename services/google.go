package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"dopplapi/models"

	"google.golang.org/genai"
)

const googleKeyPrefix = "AIza"

// ContentGenerator is the part of genai.Models the Google adapter calls.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ContentGeneratorFactory builds a generator for one API key. Keys change at
// runtime so a client is created per call.
type ContentGeneratorFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

func NewGenaiContentGenerator(ctx context.Context, apiKey string) (ContentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

type GoogleVTONRequest struct {
	APIKey            string
	Model             string
	Parts             []*genai.Part
	SystemInstruction string
}

type GoogleVTONClient struct {
	NewGenerator ContentGeneratorFactory
}

func NewGoogleVTONClient() *GoogleVTONClient {
	return &GoogleVTONClient{NewGenerator: NewGenaiContentGenerator}
}

// ValidateGoogleKey rejects keys that cannot be Gemini API keys before any
// network call.
func ValidateGoogleKey(apiKey string) error {
	if apiKey == "" {
		return ErrMissingGoogleKey
	}
	if !strings.HasPrefix(apiKey, googleKeyPrefix) {
		return &MalformedCredentialError{Reason: "Invalid Google API Key format. It usually starts with 'AIza'."}
	}
	return nil
}

// Generate runs one multimodal request and returns the text parts joined and
// every inline image as a data URI.
func (g *GoogleVTONClient) Generate(ctx context.Context, in GoogleVTONRequest) (*UniversalResponse, error) {
	if err := ValidateGoogleKey(in.APIKey); err != nil {
		return nil, err
	}
	modelName := in.Model
	if modelName == "" {
		modelName = models.DefaultGoogleModel
	}
	factory := g.NewGenerator
	if factory == nil {
		factory = NewGenaiContentGenerator
	}
	generator, err := factory(ctx, in.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{CandidateCount: 1}
	if in.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: in.SystemInstruction}},
		}
	}
	fmt.Printf("[Google] GenerateContent model=%s parts=%d\n", modelName, len(in.Parts))
	result, err := generator.GenerateContent(ctx, modelName, []*genai.Content{{Role: "user", Parts: in.Parts}}, config)
	if err != nil {
		fmt.Println("[Google] Error in GenerateContent:", err)
		return nil, classifyGoogleError(err)
	}
	if result == nil {
		return nil, &UnrecognizedResponseShapeError{}
	}
	if result.UsageMetadata != nil {
		fmt.Println("[Google] Input token count:", result.UsageMetadata.PromptTokenCount)
		fmt.Println("[Google] Output token count:", result.UsageMetadata.CandidatesTokenCount)
		fmt.Println("[Google] Total token count:", result.UsageMetadata.TotalTokenCount)
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		fmt.Println("[Google] Prompt blocked:", result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
		return nil, fmt.Errorf("content violation: %s %s", result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
	}
	return collectCandidateParts(result), nil
}

// collectCandidateParts reads only the first candidate. Thought parts are
// skipped so reasoning never leaks into the analysis text.
func collectCandidateParts(result *genai.GenerateContentResponse) *UniversalResponse {
	out := &UniversalResponse{Raw: result}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return out
	}
	candidate := result.Candidates[0]
	if candidate.FinishReason != "" {
		fmt.Println("[Google] Finish reason:", candidate.FinishReason)
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
			out.Images = append(out.Images, fmt.Sprintf("data:%s;base64,%s", mimeType, encoded))
		}
	}
	out.Content = text.String()
	return out
}

// classifyGoogleError maps the vendor errors users hit most to fixed
// messages. Other errors pass through unchanged.
func classifyGoogleError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION_DENIED"):
		return fmt.Errorf("%w (%v)", ErrForbidden, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w (%v)", ErrRateLimited, err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "INVALID_ARGUMENT"):
		return fmt.Errorf("%w (%v)", ErrBadRequest, err)
	}
	return err
}

// InlineImagePart turns an image input into a genai inline data part.
func InlineImagePart(img models.ImageInput) (*genai.Part, error) {
	data, err := img.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w %v", ErrInvalidImage, err)
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}
