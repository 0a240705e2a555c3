package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dopplapi/models"
	"dopplapi/services"
	"dopplapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	s := setupTestServer(t)
	code, body := test.InternalRequestJSON(s.e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestGetSettingsDefaults(t *testing.T) {
	s := setupTestServer(t)
	code, body := test.InternalRequestJSON(s.e, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, code)

	var out models.SettingsOut
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, models.ProviderGoogle, out.Provider)
	assert.Equal(t, models.ZhTW, out.Language)
	assert.False(t, out.HasGoogleKey)
	assert.Equal(t, models.DefaultCustomBaseURL, out.CustomConfig.BaseURL)
	assert.Equal(t, models.DefaultCustomModel, out.CustomConfig.ModelName)
}

func TestUpdateProvider(t *testing.T) {
	s := setupTestServer(t)

	code, body := test.InternalRequestJSON(s.e, http.MethodPut, "/settings/provider", UpdateProviderIn{Provider: "openai"})
	assert.Equal(t, http.StatusBadRequest, code)
	var errOut map[string]string
	require.NoError(t, json.Unmarshal(body, &errOut))
	assert.Contains(t, errOut["error"], "Provider")

	code, body = test.InternalRequestJSON(s.e, http.MethodPut, "/settings/provider", UpdateProviderIn{Provider: "custom"})
	require.Equal(t, http.StatusOK, code)
	var out models.SettingsOut
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, models.ProviderCustom, out.Provider)

	value, found, _ := s.store.Get(context.Background(), services.KeyProvider)
	assert.True(t, found)
	assert.Equal(t, "custom", value)
}

func TestUpdateLanguage(t *testing.T) {
	s := setupTestServer(t)

	code, _ := test.InternalRequestJSON(s.e, http.MethodPut, "/settings/language", UpdateLanguageIn{Language: "fr"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := test.InternalRequestJSON(s.e, http.MethodPut, "/settings/language", UpdateLanguageIn{Language: "en"})
	require.Equal(t, http.StatusOK, code)
	var out models.SettingsOut
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, models.EN, out.Language)
}

func TestUpdateGoogleKeyIsTrimmedAndMasked(t *testing.T) {
	s := setupTestServer(t)

	code, body := test.InternalRequestJSON(s.e, http.MethodPut, "/settings/google", UpdateGoogleKeyIn{APIKey: "  AIzaSyABCDEFGH1234 "})
	require.Equal(t, http.StatusOK, code)
	var out models.SettingsOut
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.HasGoogleKey)
	assert.Equal(t, "AIza**********1234", out.GoogleAPIKey)

	value, _, _ := s.store.Get(context.Background(), services.KeyGoogleAPIKey)
	assert.Equal(t, "AIzaSyABCDEFGH1234", value)
}

func TestUpdateCustomConfig(t *testing.T) {
	s := setupTestServer(t)
	config := models.CustomConfig{BaseURL: "http://localhost:11434/v1", APIKey: "ollama-key", ModelName: "llava"}

	code, body := test.InternalRequestJSON(s.e, http.MethodPut, "/settings/custom", config)
	require.Equal(t, http.StatusOK, code)
	var out models.SettingsOut
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "http://localhost:11434/v1", out.CustomConfig.BaseURL)
	assert.Equal(t, "llava", out.CustomConfig.ModelName)
	assert.Equal(t, "olla**-key", out.CustomConfig.APIKey)

	loaded, err := s.settings.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config, loaded.CustomConfig)
}

func TestConnectionUsesSavedConfigAndLanguage(t *testing.T) {
	s := setupTestServer(t)

	// saved defaults have no API key
	req := httptest.NewRequest(http.MethodPost, "/settings/test-connection", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.ConnectionTestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.OK)
	assert.Equal(t, "請填寫完整欄位 (URL, Key, Model)", result.Message)

	req = httptest.NewRequest(http.MethodPost, "/settings/test-connection", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Please fill in all fields (URL, Key, Model)", result.Message)
}

func TestConnectionWithBodyConfig(t *testing.T) {
	s := setupTestServer(t)
	mock := &test.ChatServerMock{Body: test.ChatCompletionBody("H")}
	server := mock.Start()
	defer server.Close()
	require.NoError(t, s.settings.SaveLanguage(context.Background(), models.EN))

	code, body := test.InternalRequestJSON(s.e, http.MethodPost, "/settings/test-connection", models.CustomConfig{
		BaseURL: server.URL, APIKey: "k", ModelName: "m",
	})
	require.Equal(t, http.StatusOK, code)
	var result models.ConnectionTestResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.OK)
	assert.Equal(t, "Connection Verified", result.Message)
	assert.Equal(t, "/chat/completions", mock.LastRequest().Path)
}
