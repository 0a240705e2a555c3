package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"dopplapi/models"

	"github.com/kaptinlin/jsonrepair"
)

const (
	defaultScore        = 5
	minScore            = 1
	maxScore            = 10
	analyzingText       = "Analyzing..."
	analyzingFailedText = "Analyzing... (Parse Failed)"
)

var (
	fencedJSONBlock  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedBlock      = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	bareObject       = regexp.MustCompile(`(?s)\{.*\}`)
	trailingObjComma = regexp.MustCompile(`,\s*}`)
	trailingArrComma = regexp.MustCompile(`,\s*]`)
	markdownImage    = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)
)

// DefaultHaptics is the analysis used when the model reply carries no
// usable JSON. RawText always keeps the full reply.
func DefaultHaptics(content string) models.HapticsAnalysis {
	return models.HapticsAnalysis{
		Comfort:       analyzingFailedText,
		Weight:        analyzingText,
		Touch:         analyzingText,
		Breathability: analyzingText,
		Scores: models.HapticsScores{
			Comfort:       defaultScore,
			Heaviness:     defaultScore,
			Softness:      defaultScore,
			Breathability: defaultScore,
			Elasticity:    defaultScore,
		},
		RawText: content,
	}
}

// ExtractHapticsJSON finds the JSON candidate in free text: a ```json fence,
// then any fence, then the widest {...} span.
func ExtractHapticsJSON(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{fencedJSONBlock, fencedBlock, bareObject} {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if len(match) > 1 && match[1] != "" {
			return match[1], true
		}
		return match[0], true
	}
	return "", false
}

func removeTrailingCommas(s string) string {
	s = trailingObjComma.ReplaceAllString(s, "}")
	return trailingArrComma.ReplaceAllString(s, "]")
}

func decodeHapticsObject(candidate string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(removeTrailingCommas(candidate)), &fields)
	if err == nil {
		return fields, nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(repaired), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// MergeHaptics overlays the parsed object onto analysis. Text fields override
// one by one and scores merge key by key, so a partial object keeps the
// remaining defaults.
func MergeHaptics(analysis *models.HapticsAnalysis, candidate string) error {
	fields, err := decodeHapticsObject(candidate)
	if err != nil {
		return fmt.Errorf("haptics JSON could not be decoded: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("haptics JSON is not an object")
	}
	for key, target := range map[string]*string{
		"comfort":       &analysis.Comfort,
		"weight":        &analysis.Weight,
		"touch":         &analysis.Touch,
		"breathability": &analysis.Breathability,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil {
			*target = value
		}
	}

	rawScores, ok := fields["scores"]
	if !ok {
		return nil
	}
	var scores map[string]json.RawMessage
	if err := json.Unmarshal(rawScores, &scores); err != nil || scores == nil {
		return nil
	}
	for key, target := range map[string]*int{
		"comfort":       &analysis.Scores.Comfort,
		"heaviness":     &analysis.Scores.Heaviness,
		"softness":      &analysis.Scores.Softness,
		"breathability": &analysis.Scores.Breathability,
		"elasticity":    &analysis.Scores.Elasticity,
	} {
		raw, ok := scores[key]
		if !ok {
			continue
		}
		if score, ok := coerceScore(raw); ok {
			*target = score
		}
	}
	return nil
}

// coerceScore accepts numbers and numeric strings, rounds and clamps into
// [1,10].
func coerceScore(raw json.RawMessage) (int, bool) {
	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		number, err = strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	score := int(math.Round(number))
	score = max(score, minScore)
	score = min(score, maxScore)
	return score, true
}

// ParseVTONResult turns a normalized reply into an image plus a complete
// haptics analysis. Only the image is mandatory.
func ParseVTONResult(response *UniversalResponse) (*models.VTONResult, error) {
	if response == nil {
		return nil, ErrNoImageProduced
	}
	image := ""
	if len(response.Images) > 0 {
		image = response.Images[0]
	} else if match := markdownImage.FindStringSubmatch(response.Content); match != nil {
		image = match[1]
	}

	analysis := DefaultHaptics(response.Content)
	if candidate, ok := ExtractHapticsJSON(response.Content); ok {
		if err := MergeHaptics(&analysis, candidate); err != nil {
			fmt.Println("[Parser] Failed to parse haptics JSON:", err)
		}
	}
	if image == "" {
		return nil, ErrNoImageProduced
	}
	return &models.VTONResult{Image: image, Analysis: analysis}, nil
}
