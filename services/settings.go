package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dopplapi/models"
)

// Saved setting keys.
const (
	KeyGoogleAPIKey = "gemini_api_key"
	KeyProvider     = "doppl_provider"
	KeyLanguage     = "doppl_lang"
	KeyCustomConfig = "doppl_custom_config"
)

// Settings is the effective configuration after loading saved values.
type Settings struct {
	Provider     models.ProviderType
	Language     models.Language
	GoogleAPIKey string
	CustomConfig models.CustomConfig
}

func DefaultSettings() Settings {
	return Settings{
		Provider:     models.ProviderGoogle,
		Language:     models.DefaultLanguage,
		CustomConfig: models.DefaultCustomConfig(),
	}
}

type SettingsService struct {
	store KeyValueStore
}

func NewSettingsService(store KeyValueStore) *SettingsService {
	return &SettingsService{store: store}
}

// Load reads every saved value. Unknown provider or language values and a
// malformed custom config fall back to the defaults.
func (s *SettingsService) Load(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()

	if value, found, err := s.store.Get(ctx, KeyGoogleAPIKey); err != nil {
		return settings, err
	} else if found {
		settings.GoogleAPIKey = value
	}

	if value, found, err := s.store.Get(ctx, KeyProvider); err != nil {
		return settings, err
	} else if found && models.ProviderType(value).IsValid() {
		settings.Provider = models.ProviderType(value)
	}

	if value, found, err := s.store.Get(ctx, KeyLanguage); err != nil {
		return settings, err
	} else if found && models.Language(value).IsValid() {
		settings.Language = models.Language(value)
	}

	if value, found, err := s.store.Get(ctx, KeyCustomConfig); err != nil {
		return settings, err
	} else if found {
		var config models.CustomConfig
		if err := json.Unmarshal([]byte(value), &config); err != nil {
			fmt.Println("[Settings] Saved custom config is malformed, using defaults:", err)
		} else {
			settings.CustomConfig = config
		}
	}
	return settings, nil
}

// SaveGoogleKey trims and stores the key. An empty key removes it.
func (s *SettingsService) SaveGoogleKey(ctx context.Context, apiKey string) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", s.store.Remove(ctx, KeyGoogleAPIKey)
	}
	return apiKey, s.store.Set(ctx, KeyGoogleAPIKey, apiKey)
}

func (s *SettingsService) SaveProvider(ctx context.Context, provider models.ProviderType) error {
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", provider)
	}
	return s.store.Set(ctx, KeyProvider, provider.Value())
}

func (s *SettingsService) SaveLanguage(ctx context.Context, lang models.Language) error {
	if !lang.IsValid() {
		return fmt.Errorf("unsupported language %q", lang)
	}
	return s.store.Set(ctx, KeyLanguage, lang.Value())
}

func (s *SettingsService) SaveCustomConfig(ctx context.Context, config models.CustomConfig) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, KeyCustomConfig, string(raw))
}

// MaskKey keeps the first four and last four characters of a credential.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func (s Settings) Out() models.SettingsOut {
	custom := s.CustomConfig
	custom.APIKey = MaskKey(custom.APIKey)
	return models.SettingsOut{
		Provider:     s.Provider,
		Language:     s.Language,
		GoogleAPIKey: MaskKey(s.GoogleAPIKey),
		HasGoogleKey: s.GoogleAPIKey != "",
		CustomConfig: custom,
	}
}
