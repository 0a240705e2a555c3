package controllers

import (
	"context"
	"net/http"

	"dopplapi/models"
	"dopplapi/services"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ConnectionTester checks a custom provider configuration.
type ConnectionTester interface {
	TestConnection(ctx context.Context, config models.CustomConfig, lang models.Language) models.ConnectionTestResult
}

// TryOnRunner drives one try-on screen.
type TryOnRunner interface {
	Generate(ctx context.Context, req services.GenerateRequest) (*models.VTONResult, error)
	Reset()
	CloseResult() error
	Snapshot() models.SessionOut
}

func SetupServer(
	settingsService *services.SettingsService,
	session TryOnRunner,
	tester ConnectionTester,
	allowOrigins []string,
) *echo.Echo {

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("provider", models.ValidateProvider)
	v.RegisterValidation("language", models.ValidateLanguage)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__settings", settingsService)
			return next(c)
		}
	})

	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "Accept-Language"},
	}))
	e.Use(middleware.BodyLimit("40M"))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	tryOnController := TryOnController{Session: session}
	tryOnGroup := e.Group("/tryon", SettingsMiddleware)
	tryOnController.TryOnRoutes(tryOnGroup)

	settingsController := SettingsController{Tester: tester}
	settingsGroup := e.Group("/settings", SettingsMiddleware)
	settingsController.SettingsRoutes(settingsGroup)

	return e
}
