package services

import (
	"context"
	"fmt"
	"strings"

	"dopplapi/models"
)

type GenerateRequest struct {
	Provider     models.ProviderType
	Google       models.GoogleConfig
	Custom       models.CustomConfig
	Instruction  string
	UserImage    models.ImageInput
	GarmentImage models.ImageInput
	Language     models.Language
}

// Generator produces one try-on result.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*models.VTONResult, error)
}

// Precheck validates a request without any network activity.
func Precheck(req GenerateRequest) error {
	switch req.Provider {
	case models.ProviderCustom:
		if !req.Custom.IsComplete() {
			return ErrIncompleteCustomConfig
		}
	default:
		if strings.TrimSpace(req.Google.APIKey) == "" {
			return ErrMissingGoogleKey
		}
	}
	if req.UserImage.IsEmpty() || req.GarmentImage.IsEmpty() {
		return ErrMissingImages
	}
	return nil
}

// VTONGenerator builds the provider specific prompt, calls the provider and
// parses the reply.
type VTONGenerator struct {
	Google  *GoogleVTONClient
	Generic *GenericChatClient
}

func NewVTONGenerator(google *GoogleVTONClient, generic *GenericChatClient) *VTONGenerator {
	return &VTONGenerator{Google: google, Generic: generic}
}

func (g *VTONGenerator) Generate(ctx context.Context, req GenerateRequest) (*models.VTONResult, error) {
	if err := Precheck(req); err != nil {
		return nil, err
	}
	lang := req.Language
	if !lang.IsValid() {
		lang = models.DefaultLanguage
	}
	systemPrompt := SystemPrompt(lang)

	var response *UniversalResponse
	switch req.Provider {
	case models.ProviderCustom:
		messages := BuildChatMessages(systemPrompt, req.UserImage, req.GarmentImage, req.Instruction)
		fmt.Printf("[Note: generate] custom provider model=%s\n", req.Custom.ModelName)
		resp, err := g.Generic.Complete(ctx, GenericChatRequest{
			BaseURL:  req.Custom.BaseURL,
			APIKey:   req.Custom.APIKey,
			Model:    req.Custom.ModelName,
			Messages: messages,
		})
		if err != nil {
			return nil, err
		}
		response = resp
	default:
		parts, err := BuildGoogleParts(req.UserImage, req.GarmentImage, req.Instruction)
		if err != nil {
			return nil, err
		}
		fmt.Printf("[Note: generate] google provider model=%s\n", req.Google.Model)
		resp, err := g.Google.Generate(ctx, GoogleVTONRequest{
			APIKey:            strings.TrimSpace(req.Google.APIKey),
			Model:             req.Google.Model,
			Parts:             parts,
			SystemInstruction: systemPrompt,
		})
		if err != nil {
			return nil, err
		}
		response = resp
	}
	return ParseVTONResult(response)
}
