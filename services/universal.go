package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// UniversalResponse is the provider independent shape every adapter returns.
type UniversalResponse struct {
	Content string
	Images  []string
	Raw     any
}

type ResponseShape int

const (
	ShapeUnknown ResponseShape = iota
	ShapeChatCompletion
	ShapeImagesData
	ShapeOutput
	ShapeText
)

func (s ResponseShape) String() string {
	switch s {
	case ShapeChatCompletion:
		return "chat_completion"
	case ShapeImagesData:
		return "images_data"
	case ShapeOutput:
		return "output"
	case ShapeText:
		return "text"
	default:
		return "unknown"
	}
}

// DetectResponseShape evaluates the shape predicates in priority order.
// Upstreams send no version header, so the payload shape is the only
// discriminator; a payload matching several shapes takes the first.
func DetectResponseShape(raw []byte) ResponseShape {
	if !gjson.ValidBytes(raw) {
		return ShapeUnknown
	}
	value := gjson.ParseBytes(raw)
	switch {
	case isChatCompletion(value):
		return ShapeChatCompletion
	case value.Get("data").IsArray():
		return ShapeImagesData
	case isTruthy(value.Get("output")):
		return ShapeOutput
	case value.Type == gjson.String:
		return ShapeText
	}
	return ShapeUnknown
}

func isChatCompletion(value gjson.Result) bool {
	choices := value.Get("choices")
	if !choices.IsArray() {
		return false
	}
	return isTruthy(choices.Get("0.message"))
}

// isTruthy follows JSON truthiness: missing, null, false, 0 and "" are falsy.
func isTruthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return value.Num != 0
	case gjson.String:
		return value.Str != ""
	}
	return value.Exists()
}

// NormalizeAPIResponse converts a decoded upstream payload into a UniversalResponse.
func NormalizeAPIResponse(raw []byte) (*UniversalResponse, error) {
	value := gjson.ParseBytes(raw)
	var rawAny any
	if err := json.Unmarshal(raw, &rawAny); err != nil {
		rawAny = string(raw)
	}

	switch shape := DetectResponseShape(raw); shape {
	case ShapeChatCompletion:
		return &UniversalResponse{
			Content: messageContent(value.Get("choices.0.message.content")),
			Images:  []string{},
			Raw:     rawAny,
		}, nil
	case ShapeImagesData:
		images := lo.FilterMap(value.Get("data").Array(), func(item gjson.Result, _ int) (string, bool) {
			if url := item.Get("url"); isTruthy(url) {
				return url.String(), true
			}
			if b64 := item.Get("b64_json"); isTruthy(b64) {
				return "data:image/png;base64," + b64.String(), true
			}
			return "", false
		})
		return &UniversalResponse{Content: "", Images: images, Raw: rawAny}, nil
	case ShapeOutput:
		output := value.Get("output")
		var images []string
		switch {
		case output.IsArray():
			images = lo.FilterMap(output.Array(), func(item gjson.Result, _ int) (string, bool) {
				return outputImage(item)
			})
		case output.IsObject():
			images = []string{}
			if image, ok := outputImage(output); ok {
				images = append(images, image)
			}
		default:
			images = []string{output.String()}
		}
		return &UniversalResponse{Content: "", Images: images, Raw: rawAny}, nil
	case ShapeText:
		return &UniversalResponse{Content: value.String(), Images: []string{}, Raw: rawAny}, nil
	default:
		return nil, &UnrecognizedResponseShapeError{Raw: raw}
	}
}

// outputImage reads an output entry that is either a URL string or an
// object carrying a url field.
func outputImage(item gjson.Result) (string, bool) {
	if url := item.Get("url"); isTruthy(url) {
		return url.String(), true
	}
	if item.Type == gjson.String && item.Str != "" {
		return item.Str, true
	}
	return "", false
}

// messageContent reads a chat message content which is either a plain string
// or a list of typed content parts.
func messageContent(content gjson.Result) string {
	if content.IsArray() {
		var sb strings.Builder
		for _, part := range content.Array() {
			if text := part.Get("text"); text.Type == gjson.String {
				sb.WriteString(text.Str)
			}
		}
		return sb.String()
	}
	if content.Type == gjson.String {
		return content.Str
	}
	if !isTruthy(content) {
		return ""
	}
	return fmt.Sprint(content.Value())
}
