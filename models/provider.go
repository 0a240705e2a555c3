package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderCustom ProviderType = "custom"
)

const (
	DefaultGoogleModel   = "gemini-2.5-flash-image"
	DefaultCustomBaseURL = "https://openrouter.ai/api/v1"
	DefaultCustomModel   = "anthropic/claude-3.5-sonnet"
)

func (p ProviderType) Value() string {
	return string(p)
}

func (p ProviderType) IsValid() bool {
	return p == ProviderGoogle || p == ProviderCustom
}

var providerRule = regexp.MustCompile(`^(google|custom)$`)

func ValidateProvider(fl validator.FieldLevel) bool {
	return providerRule.MatchString(fl.Field().String())
}

// GoogleConfig configures the vendor SDK provider.
type GoogleConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// CustomConfig configures an OpenAI Chat compatible endpoint. The JSON field
// names match the saved doppl_custom_config value.
type CustomConfig struct {
	BaseURL   string `json:"baseUrl" validate:"omitempty,max=500"`
	APIKey    string `json:"apiKey" validate:"omitempty,max=500"`
	ModelName string `json:"modelName" validate:"omitempty,max=200"`
}

func DefaultCustomConfig() CustomConfig {
	return CustomConfig{
		BaseURL:   DefaultCustomBaseURL,
		ModelName: DefaultCustomModel,
	}
}

// IsComplete reports whether every field needed for a request is set.
func (c CustomConfig) IsComplete() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.ModelName != ""
}
