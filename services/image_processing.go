package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"dopplapi/models"

	"github.com/disintegration/imaging"
)

// MaxImageSide bounds the longer side of an uploaded photo. Providers reject
// or silently shrink bigger inputs.
const MaxImageSide = 2048

// PrepareUploadImage decodes an uploaded photo, applies EXIF orientation and
// downscales it to fit maxSide. Small PNG or JPEG uploads are passed through
// untouched.
func PrepareUploadImage(data []byte, mimeType string, maxSide int) (models.ImageInput, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("%w %v", ErrInvalidImage, err)
	}
	if maxSide <= 0 {
		maxSide = MaxImageSide
	}
	if cfg.Width <= maxSide && cfg.Height <= maxSide && (format == "png" || format == "jpeg") {
		return models.ImageInput{
			Data:     base64.StdEncoding.EncodeToString(data),
			MIMEType: "image/" + format,
		}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("%w %v", ErrInvalidImage, err)
	}
	if cfg.Width > maxSide || cfg.Height > maxSide {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
		fmt.Printf("[Image] Downscaled %dx%d %s to %dx%d\n", cfg.Width, cfg.Height, mimeType, img.Bounds().Dx(), img.Bounds().Dy())
	}

	outFormat, outMIME := imaging.JPEG, "image/jpeg"
	if format == "png" {
		outFormat, outMIME = imaging.PNG, "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, outFormat, imaging.JPEGQuality(92)); err != nil {
		return models.ImageInput{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return models.ImageInput{
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		MIMEType: outMIME,
	}, nil
}
