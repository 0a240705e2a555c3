package controllers

import (
	"fmt"
	"net/http"

	"dopplapi/models"
	"dopplapi/services"

	"github.com/labstack/echo/v4"
)

type UpdateProviderIn struct {
	Provider string `json:"provider" validate:"required,provider"`
}

type UpdateLanguageIn struct {
	Language string `json:"language" validate:"required,language"`
}

type UpdateGoogleKeyIn struct {
	APIKey string `json:"api_key" validate:"max=500"`
}

type SettingsController struct {
	Tester ConnectionTester
}

func (controller *SettingsController) SettingsRoutes(g *echo.Group) {
	g.GET("", controller.GetSettings)
	g.PUT("/provider", controller.UpdateProvider)
	g.PUT("/language", controller.UpdateLanguage)
	g.PUT("/google", controller.UpdateGoogleKey)
	g.PUT("/custom", controller.UpdateCustomConfig)
	g.POST("/test-connection", controller.TestConnection)
}

func settingsService(c echo.Context) *services.SettingsService {
	return c.Get("__settings").(*services.SettingsService)
}

// reloaded returns the settings as saved after an update.
func reloaded(c echo.Context) error {
	settings, err := settingsService(c).Load(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load settings"})
	}
	return c.JSON(http.StatusOK, settings.Out())
}

func (controller *SettingsController) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, currentSettings(c).Out())
}

func (controller *SettingsController) UpdateProvider(c echo.Context) error {
	var req UpdateProviderIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := settingsService(c).SaveProvider(c.Request().Context(), models.ProviderType(req.Provider)); err != nil {
		fmt.Println("Error saving provider", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save provider"})
	}
	return reloaded(c)
}

func (controller *SettingsController) UpdateLanguage(c echo.Context) error {
	var req UpdateLanguageIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := settingsService(c).SaveLanguage(c.Request().Context(), models.Language(req.Language)); err != nil {
		fmt.Println("Error saving language", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save language"})
	}
	return reloaded(c)
}

func (controller *SettingsController) UpdateGoogleKey(c echo.Context) error {
	var req UpdateGoogleKeyIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if _, err := settingsService(c).SaveGoogleKey(c.Request().Context(), req.APIKey); err != nil {
		fmt.Println("Error saving google key", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save API key"})
	}
	return reloaded(c)
}

func (controller *SettingsController) UpdateCustomConfig(c echo.Context) error {
	var req models.CustomConfig
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := settingsService(c).SaveCustomConfig(c.Request().Context(), req); err != nil {
		fmt.Println("Error saving custom config", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save custom provider"})
	}
	return reloaded(c)
}

// TestConnection checks the config in the body, or the saved one when the
// body is empty.
func (controller *SettingsController) TestConnection(c echo.Context) error {
	var req models.CustomConfig
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}
	if req == (models.CustomConfig{}) {
		req = currentSettings(c).CustomConfig
	}
	result := controller.Tester.TestConnection(c.Request().Context(), req, currentLanguage(c))
	return c.JSON(http.StatusOK, result)
}
