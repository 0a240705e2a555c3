package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

type AppStatus string

const (
	StatusIdle        AppStatus = "IDLE"
	StatusUploading   AppStatus = "UPLOADING"
	StatusAnalyzing   AppStatus = "ANALYZING"
	StatusWarping     AppStatus = "WARPING"
	StatusCompositing AppStatus = "COMPOSITING"
	StatusRendering   AppStatus = "RENDERING"
	StatusComplete    AppStatus = "COMPLETE"
	StatusError       AppStatus = "ERROR"
)

// IsProcessing is true for the cosmetic progress phases.
func (s AppStatus) IsProcessing() bool {
	return s != StatusIdle && s != StatusComplete && s != StatusError
}

// ImageInput is a base64 image payload without the data URI prefix.
type ImageInput struct {
	Data     string `json:"data" validate:"required"`
	MIMEType string `json:"mime_type" validate:"required,max=100"`
}

// NewImageInput accepts either bare base64 or a full data URI. A MIME type
// found in the data URI wins over the given one.
func NewImageInput(raw string, mimeType string) ImageInput {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		header, payload, found := strings.Cut(raw, ",")
		if found {
			raw = payload
			mime := strings.TrimPrefix(header, "data:")
			mime = strings.TrimSuffix(mime, ";base64")
			if mime != "" {
				mimeType = mime
			}
		}
	}
	return ImageInput{Data: raw, MIMEType: mimeType}
}

func (i ImageInput) IsEmpty() bool {
	return i.Data == ""
}

func (i ImageInput) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, i.Data)
}

func (i ImageInput) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(i.Data)
	if err != nil {
		return nil, fmt.Errorf("image payload is not valid base64: %w", err)
	}
	return data, nil
}

type HapticsScores struct {
	Comfort       int `json:"comfort"`
	Heaviness     int `json:"heaviness"`
	Softness      int `json:"softness"`
	Breathability int `json:"breathability"`
	Elasticity    int `json:"elasticity"`
}

// HapticsAnalysis is the comfort report the model embeds as JSON in its text
// reply. It is always complete, see services.DefaultHaptics.
type HapticsAnalysis struct {
	Comfort       string        `json:"comfort"`
	Weight        string        `json:"weight"`
	Touch         string        `json:"touch"`
	Breathability string        `json:"breathability"`
	Scores        HapticsScores `json:"scores"`
	RawText       string        `json:"rawText"`
}

type VTONResult struct {
	Image    string          `json:"image"`
	Analysis HapticsAnalysis `json:"analysis"`
}

type ConnectionTestResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
