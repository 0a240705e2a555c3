package main

import (
	"log"
	"strings"
	"time"

	"dopplapi/controllers"
	"dopplapi/dbhelper"
	"dopplapi/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	err := sentry.Init(sentry.ClientOptions{
		// Empty DSN disables reporting.
		Dsn:              services.GetEnv("SENTRY_DSN", ""),
		Environment:      services.GetEnv("ENV", "local"),
		Release:          "dopplapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	var store services.KeyValueStore
	switch services.GetEnv("SETTINGS_STORE", "memory") {
	case "db":
		db := dbhelper.SetupDB()
		store = services.NewCachedKeyValueStore(services.NewDBKeyValueStore(db))
		log.Println("Settings store: postgres")
	default:
		store = services.NewMemoryKeyValueStore()
		log.Println("Settings store: memory")
	}
	settings := services.NewSettingsService(store)

	appOrigin := services.GetEnv("APP_ORIGIN", "http://localhost:8083")
	generic := services.NewGenericChatClient(appOrigin)
	generator := services.NewVTONGenerator(services.NewGoogleVTONClient(), generic)
	session := services.NewTryOnSession(generator, services.DefaultPhaseSteps)

	var allowOrigins []string
	if origins := services.GetEnv("CORS_ORIGINS", ""); origins != "" {
		allowOrigins = strings.Split(origins, ",")
	}
	e := controllers.SetupServer(settings, session, generic, allowOrigins)
	e.Debug = services.GetEnv("ENV", "local") == "local"

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	e.Logger.Fatal(e.Start(":" + services.GetEnv("PORT", "8083")))
}
