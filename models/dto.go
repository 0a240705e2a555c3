package models

type SettingsOut struct {
	Provider     ProviderType `json:"provider"`
	Language     Language     `json:"language"`
	GoogleAPIKey string       `json:"google_api_key"`
	HasGoogleKey bool         `json:"has_google_key"`
	CustomConfig CustomConfig `json:"custom_config"`
}

type SessionOut struct {
	Status     AppStatus   `json:"status"`
	InFlight   bool        `json:"in_flight"`
	Result     *VTONResult `json:"result,omitempty"`
	ErrMessage *string     `json:"error_message,omitempty"`
}
