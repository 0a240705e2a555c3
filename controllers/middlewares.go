package controllers

import (
	"fmt"
	"net/http"

	"dopplapi/models"
	"dopplapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// SettingsMiddleware loads the saved settings once per request and resolves
// the request language: an Accept-Language header wins over the saved one.
func SettingsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		settingsService, ok := c.Get("__settings").(*services.SettingsService)
		if !ok {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Settings store is not available"})
		}
		settings, err := settingsService.Load(c.Request().Context())
		if err != nil {
			fmt.Println("[Settings] Error loading settings", err)
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load settings"})
		}
		language := settings.Language
		if header := c.Request().Header.Get("Accept-Language"); header != "" {
			language = models.MatchLanguage(header)
		}
		c.Set("currentSettings", settings)
		c.Set("language", language)
		return next(c)
	}
}

func currentSettings(c echo.Context) services.Settings {
	if settings, ok := c.Get("currentSettings").(services.Settings); ok {
		return settings
	}
	return services.DefaultSettings()
}

func currentLanguage(c echo.Context) models.Language {
	if language, ok := c.Get("language").(models.Language); ok {
		return language
	}
	return models.DefaultLanguage
}
