package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"dopplapi/models"
	"dopplapi/services"

	"github.com/labstack/echo/v4"
)

type GenerateTryOnIn struct {
	UserImage        string `json:"user_image" validate:"required"`
	UserImageMIME    string `json:"user_image_mime" validate:"omitempty,max=100"`
	GarmentImage     string `json:"garment_image" validate:"required"`
	GarmentImageMIME string `json:"garment_image_mime" validate:"omitempty,max=100"`
	Instruction      string `json:"instruction" validate:"omitempty,max=2000"`
	GoogleModel      string `json:"google_model" validate:"omitempty,max=100"`
}

type TryOnController struct {
	Session TryOnRunner
}

func (controller *TryOnController) TryOnRoutes(g *echo.Group) {
	g.POST("/generate", controller.Generate)
	g.POST("/reset", controller.Reset)
	g.DELETE("/result", controller.CloseResult)
	g.GET("/status", controller.Status)
}

func (controller *TryOnController) Generate(c echo.Context) error {
	var in GenerateTryOnIn
	var userImage, garmentImage models.ImageInput

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		var err error
		userImage, err = readUploadedImage(c, "user_image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		garmentImage, err = readUploadedImage(c, "garment_image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		in.Instruction = c.FormValue("instruction")
		in.GoogleModel = c.FormValue("google_model")
	} else {
		if err := c.Bind(&in); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(in); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		userImage = models.NewImageInput(in.UserImage, defaultMIME(in.UserImageMIME))
		garmentImage = models.NewImageInput(in.GarmentImage, defaultMIME(in.GarmentImageMIME))
	}

	settings := currentSettings(c)
	req := services.GenerateRequest{
		Provider:     settings.Provider,
		Google:       models.GoogleConfig{APIKey: settings.GoogleAPIKey, Model: in.GoogleModel},
		Custom:       settings.CustomConfig,
		Instruction:  in.Instruction,
		UserImage:    userImage,
		GarmentImage: garmentImage,
		Language:     currentLanguage(c),
	}
	result, err := controller.Session.Generate(c.Request().Context(), req)
	if err != nil {
		return c.JSON(generationErrorStatus(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (controller *TryOnController) Reset(c echo.Context) error {
	controller.Session.Reset()
	return c.JSON(http.StatusOK, controller.Session.Snapshot())
}

func (controller *TryOnController) CloseResult(c echo.Context) error {
	if err := controller.Session.CloseResult(); err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, controller.Session.Snapshot())
}

func (controller *TryOnController) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, controller.Session.Snapshot())
}

func defaultMIME(mimeType string) string {
	if mimeType == "" {
		return "image/png"
	}
	return mimeType
}

func readUploadedImage(c echo.Context, field string) (models.ImageInput, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.ImageInput{}, nil
		}
		return models.ImageInput{}, fmt.Errorf("Failed to read %s: %w", field, err)
	}
	data, err := readMultipartFile(header)
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("Failed to read %s: %w", field, err)
	}
	image, err := services.PrepareUploadImage(data, header.Header.Get(echo.HeaderContentType), services.MaxImageSide)
	if err != nil {
		return models.ImageInput{}, fmt.Errorf("Unsupported %s: %w", field, err)
	}
	return image, nil
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// generationErrorStatus maps generation failures to HTTP statuses. Failures
// outside the known set come from the upstream provider.
func generationErrorStatus(err error) int {
	var credErr *services.MalformedCredentialError
	switch {
	case errors.Is(err, services.ErrMissingGoogleKey),
		errors.Is(err, services.ErrIncompleteCustomConfig),
		errors.Is(err, services.ErrMissingImages),
		errors.Is(err, services.ErrMissingBaseURL),
		errors.Is(err, services.ErrInvalidImage),
		errors.As(err, &credErr):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrGenerationInProgress),
		errors.Is(err, services.ErrGenerationDiscarded):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoImageProduced):
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
