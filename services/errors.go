package services

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBaseURL         = errors.New("Base URL is required for custom providers.")
	ErrMissingGoogleKey       = errors.New("Please enter a valid Gemini API key.")
	ErrIncompleteCustomConfig = errors.New("Please fill in Base URL, API key and model ID for the custom provider.")
	ErrMissingImages          = errors.New("Both a person image and a garment image are required.")
	ErrInvalidImage           = errors.New("The uploaded image could not be read.")
	ErrNoImageProduced        = errors.New("Model returned text but NO image. Ensure the model has Vision/Image Generation capabilities.")
	ErrGenerationInProgress   = errors.New("A generation is already in progress.")
	ErrGenerationDiscarded    = errors.New("Generation was reset before it finished; the result was discarded.")

	ErrForbidden   = errors.New("Google 403 Forbidden: Check API Key or Model Access.")
	ErrRateLimited = errors.New("Too many requests (429). Please try again later.")
	ErrBadRequest  = errors.New("Invalid request (400). The image format may be unsupported or the image too large.")
)

// MalformedCredentialError is raised before any network call when a
// credential cannot possibly be valid.
type MalformedCredentialError struct {
	Reason string
}

func (e *MalformedCredentialError) Error() string {
	return e.Reason
}

// NonJSONResponseError means the upstream answered with something that is
// not JSON, usually an HTML error page from a reverse proxy.
type NonJSONResponseError struct {
	Endpoint string
	Snippet  string
}

func (e *NonJSONResponseError) Error() string {
	return fmt.Sprintf("API Response is not JSON (Likely HTML/Error Page).\nEndpoint: %s\nSnippet: %s...", e.Endpoint, e.Snippet)
}

// UpstreamAPIError is a non-2xx answer from the upstream provider.
type UpstreamAPIError struct {
	Status  int
	Message string
}

func (e *UpstreamAPIError) Error() string {
	msg := fmt.Sprintf("API Error (%d): %s", e.Status, e.Message)
	if hint := e.Guidance(); hint != "" {
		msg += "\n" + hint
	}
	return msg
}

// Guidance returns a short hint for the status codes users most often hit.
func (e *UpstreamAPIError) Guidance() string {
	switch e.Status {
	case 400:
		return "Check that the model supports image input and that the images are not too large."
	case 401:
		return "The API key is invalid or expired."
	case 403:
		return "The API key has no access to this model."
	case 404:
		return "Check the model name and the base URL."
	case 429:
		return "Rate limit reached, please wait before retrying."
	}
	return ""
}

// UnrecognizedResponseShapeError is returned when an upstream payload
// matches none of the known reply shapes. Raw keeps the payload for
// diagnostics.
type UnrecognizedResponseShapeError struct {
	Raw []byte
}

func (e *UnrecognizedResponseShapeError) Error() string {
	return "Unknown API response format. Response Normalization Failed."
}
