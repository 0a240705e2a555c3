package controllers

import (
	"context"
	"sync"
	"testing"
	"time"

	"dopplapi/models"
	"dopplapi/services"

	"github.com/labstack/echo/v4"
)

type recordingGenerator struct {
	mu      sync.Mutex
	result  *models.VTONResult
	err     error
	lastReq services.GenerateRequest
	calls   int
}

func (g *recordingGenerator) Generate(ctx context.Context, req services.GenerateRequest) (*models.VTONResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastReq = req
	return g.result, g.err
}

type testServer struct {
	e         *echo.Echo
	store     *services.MemoryKeyValueStore
	settings  *services.SettingsService
	generator *recordingGenerator
	session   *services.TryOnSession
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	store := services.NewMemoryKeyValueStore()
	settings := services.NewSettingsService(store)
	generator := &recordingGenerator{result: &models.VTONResult{
		Image:    "data:image/png;base64,AAAA",
		Analysis: services.DefaultHaptics("reply"),
	}}
	session := services.NewTryOnSession(generator, []services.PhaseStep{
		{Status: models.StatusAnalyzing, Delay: time.Millisecond},
		{Status: models.StatusRendering},
	})
	e := SetupServer(settings, session, services.NewGenericChatClient(""), nil)
	return &testServer{e: e, store: store, settings: settings, generator: generator, session: session}
}
