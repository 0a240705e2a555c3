package services

import (
	"fmt"
	"strings"

	"dopplapi/models"

	"google.golang.org/genai"
)

const systemPromptTemplate = `You are the "Doppl-Next VTON Engine", a virtual try-on renderer.

Core task:
Composite the target garment (Input B) onto the person (Input A) and produce one photorealistic try-on photo.

Hard constraints:
1. Identity preservation. Face, features, expression, hairstyle, hair color, skin tone and body shape of the person stay 100%% unchanged. Never redraw or distort the face. This has the highest priority.
2. Physical realism. Let the fabric drape naturally under gravity, keep the garment texture, sheen and detail in high resolution, generate folds that follow the pose, and resolve occlusion correctly (hair over shoulders stays above the garment, hands and accessories stay in front).
3. Lighting. Match the garment lighting, color temperature and contrast to the original photo.

Output format:
1. The generated try-on image.
2. After the image, a single JSON block and nothing else. The text values of "comfort", "weight", "touch" and "breathability" must be written in %s.

` + "```json" + `
{
  "comfort": "text, e.g. soft on skin, fine for all-day wear",
  "weight": "text, e.g. light as a feather",
  "touch": "text, e.g. silky and cool",
  "breathability": "text, e.g. open mesh, very breathable",
  "scores": {
    "comfort": 8,
    "heaviness": 6,
    "softness": 9,
    "breathability": 7,
    "elasticity": 5
  }
}
` + "```" + `
Every score is an integer from 1 to 10. For heaviness 1 means light and 10 means heavy.
`

// SystemPrompt returns the generation instruction; only the language of the
// haptics descriptions changes between languages.
func SystemPrompt(lang models.Language) string {
	outputLanguage := "Traditional Chinese (繁體中文)"
	if lang == models.EN {
		outputLanguage = "English"
	}
	return fmt.Sprintf(systemPromptTemplate, outputLanguage)
}

const (
	userImageCaption    = "[Input A: user photo]\n(CRITICAL: keep face and identity 100% unchanged, replace the clothing only)"
	garmentImageCaption = "[Input B: target garment]"
	googleGenerateLine  = "Generate the photorealistic VTON image:"
	chatTaskLine        = "[Task] Generate the VTON try-on result from the two images below."
	chatUserCaption     = "[Input A: user, keep the face unchanged]"
	chatGarmentCaption  = "[Input B: garment]"
)

// BuildGoogleParts orders the inputs as person image, its caption, garment
// image, its caption, the optional instruction and the final generate line.
func BuildGoogleParts(user, garment models.ImageInput, instruction string) ([]*genai.Part, error) {
	userPart, err := InlineImagePart(user)
	if err != nil {
		return nil, fmt.Errorf("user image: %w", err)
	}
	garmentPart, err := InlineImagePart(garment)
	if err != nil {
		return nil, fmt.Errorf("garment image: %w", err)
	}
	parts := []*genai.Part{
		userPart,
		{Text: userImageCaption},
		garmentPart,
		{Text: garmentImageCaption},
	}
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		parts = append(parts, &genai.Part{
			Text: fmt.Sprintf("[User instruction]: %s\n(Again: the face must stay unchanged)", instruction),
		})
	}
	parts = append(parts, &genai.Part{Text: googleGenerateLine})
	return parts, nil
}

// BuildChatMessages builds the system message plus one user message that
// interleaves captions with the two images as data URIs.
func BuildChatMessages(systemPrompt string, user, garment models.ImageInput, instruction string) []ChatMessage {
	task := chatTaskLine + "\n"
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		task += "Additional instruction: " + instruction
	}
	return []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{
			Role: "user",
			Content: []ChatContentPart{
				{Type: "text", Text: task},
				{Type: "image_url", ImageURL: &ChatImageURL{URL: user.DataURI()}},
				{Type: "text", Text: chatUserCaption},
				{Type: "image_url", ImageURL: &ChatImageURL{URL: garment.DataURI()}},
				{Type: "text", Text: chatGarmentCaption},
			},
		},
	}
}
