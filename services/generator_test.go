package services

import (
	"context"
	"encoding/json"
	"testing"

	"dopplapi/models"
	"dopplapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImages() (models.ImageInput, models.ImageInput) {
	user := models.NewImageInput(test.PNGBase64(2, 2), "image/png")
	garment := models.NewImageInput("data:image/jpeg;base64,"+test.PNGBase64(3, 3), "")
	return user, garment
}

func TestPrecheck(t *testing.T) {
	user, garment := testImages()
	full := models.CustomConfig{BaseURL: "http://x", APIKey: "k", ModelName: "m"}

	assert.ErrorIs(t, Precheck(GenerateRequest{Provider: models.ProviderGoogle, UserImage: user, GarmentImage: garment}), ErrMissingGoogleKey)
	assert.ErrorIs(t, Precheck(GenerateRequest{Provider: models.ProviderCustom, Custom: models.CustomConfig{BaseURL: "http://x", ModelName: "m"}, UserImage: user, GarmentImage: garment}), ErrIncompleteCustomConfig)
	assert.ErrorIs(t, Precheck(GenerateRequest{Provider: models.ProviderCustom, Custom: full, UserImage: user}), ErrMissingImages)
	assert.NoError(t, Precheck(GenerateRequest{Provider: models.ProviderCustom, Custom: full, UserImage: user, GarmentImage: garment}))
	assert.NoError(t, Precheck(GenerateRequest{Provider: models.ProviderGoogle, Google: models.GoogleConfig{APIKey: "AIza"}, UserImage: user, GarmentImage: garment}))
}

func TestGeneratorGooglePartsOrder(t *testing.T) {
	user, garment := testImages()
	fake := &test.FakeContentGenerator{Response: test.GenaiResponse(test.HapticsReply, test.PNGBytes(4, 4))}
	generator := NewVTONGenerator(fakeGoogleClient(fake), NewGenericChatClient(""))

	result, err := generator.Generate(context.Background(), GenerateRequest{
		Provider:     models.ProviderGoogle,
		Google:       models.GoogleConfig{APIKey: " AIzaKey "},
		Instruction:  "tuck the shirt in",
		UserImage:    user,
		GarmentImage: garment,
		Language:     models.EN,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Image, "data:image/png;base64,")
	assert.Equal(t, 8, result.Analysis.Scores.Comfort)

	parts := fake.LastContents[0].Parts
	require.Len(t, parts, 6)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Contains(t, parts[1].Text, "Input A")
	assert.Equal(t, "image/jpeg", parts[2].InlineData.MIMEType)
	assert.Contains(t, parts[3].Text, "Input B")
	assert.Contains(t, parts[4].Text, "tuck the shirt in")
	assert.Contains(t, parts[5].Text, "Generate")
	assert.Contains(t, fake.LastConfig.SystemInstruction.Parts[0].Text, "English")
}

func TestGeneratorGoogleWithoutInstruction(t *testing.T) {
	user, garment := testImages()
	fake := &test.FakeContentGenerator{Response: test.GenaiResponse("", test.PNGBytes(1, 1))}
	generator := NewVTONGenerator(fakeGoogleClient(fake), nil)

	result, err := generator.Generate(context.Background(), GenerateRequest{
		Provider:     models.ProviderGoogle,
		Google:       models.GoogleConfig{APIKey: "AIzaKey"},
		Instruction:  "   ",
		UserImage:    user,
		GarmentImage: garment,
	})
	require.NoError(t, err)
	assert.Len(t, fake.LastContents[0].Parts, 5)
	assert.Contains(t, fake.LastConfig.SystemInstruction.Parts[0].Text, "繁體中文")
	assert.Equal(t, "Analyzing... (Parse Failed)", result.Analysis.Comfort)
}

func TestGeneratorCustomMessages(t *testing.T) {
	user, garment := testImages()
	mock := &test.ChatServerMock{Body: test.ChatCompletionBody("done ![vton](https://cdn.example.com/r.png)\n" + test.HapticsReply)}
	server := mock.Start()
	defer server.Close()
	generator := NewVTONGenerator(nil, NewGenericChatClient(""))

	result, err := generator.Generate(context.Background(), GenerateRequest{
		Provider:     models.ProviderCustom,
		Custom:       models.CustomConfig{BaseURL: server.URL, APIKey: "k", ModelName: "vendor/model"},
		Instruction:  "make it oversized",
		UserImage:    user,
		GarmentImage: garment,
		Language:     models.ZhTW,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r.png", result.Image)
	assert.Equal(t, "Soft", result.Analysis.Comfort)

	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(mock.LastRequest().Body, &body))
	assert.Equal(t, "vendor/model", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "user", body.Messages[1].Role)

	var parts []ChatContentPart
	require.NoError(t, json.Unmarshal(body.Messages[1].Content, &parts))
	require.Len(t, parts, 5)
	assert.Contains(t, parts[0].Text, "make it oversized")
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, user.DataURI(), parts[1].ImageURL.URL)
	assert.Equal(t, "text", parts[2].Type)
	assert.Equal(t, "data:image/jpeg;base64,"+test.PNGBase64(3, 3), parts[3].ImageURL.URL)
	assert.Equal(t, "text", parts[4].Type)
}

func TestGeneratorCustomNoImage(t *testing.T) {
	user, garment := testImages()
	mock := &test.ChatServerMock{Body: test.ChatCompletionBody("I can only describe the look.")}
	server := mock.Start()
	defer server.Close()

	_, err := NewVTONGenerator(nil, NewGenericChatClient("")).Generate(context.Background(), GenerateRequest{
		Provider:     models.ProviderCustom,
		Custom:       models.CustomConfig{BaseURL: server.URL, APIKey: "k", ModelName: "m"},
		UserImage:    user,
		GarmentImage: garment,
	})
	assert.ErrorIs(t, err, ErrNoImageProduced)
}
