package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"dopplapi/models"
	"dopplapi/services"
	"dopplapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTryOnIn() GenerateTryOnIn {
	return GenerateTryOnIn{
		UserImage:    test.PNGBase64(2, 2),
		GarmentImage: "data:image/jpeg;base64," + test.PNGBase64(2, 2),
		Instruction:  "roll up the sleeves",
	}
}

func TestGenerateWithoutKeyIsRejected(t *testing.T) {
	s := setupTestServer(t)

	code, body := test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", validTryOnIn())
	assert.Equal(t, http.StatusBadRequest, code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, services.ErrMissingGoogleKey.Error(), out["error"])
	assert.Equal(t, 0, s.generator.calls)
}

func TestGenerateIncompleteCustomProvider(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.settings.SaveProvider(context.Background(), models.ProviderCustom))

	code, _ := test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", validTryOnIn())
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 0, s.generator.calls)
}

func TestGenerateMissingImageField(t *testing.T) {
	s := setupTestServer(t)
	in := validTryOnIn()
	in.GarmentImage = ""

	code, body := test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", in)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "GarmentImage")
}

func TestGenerateOk(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	_, err := s.settings.SaveGoogleKey(ctx, "AIzaTestKey")
	require.NoError(t, err)
	require.NoError(t, s.settings.SaveLanguage(ctx, models.EN))

	in := validTryOnIn()
	in.GoogleModel = "gemini-3-pro-image-preview"
	code, body := test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", in)
	require.Equal(t, http.StatusOK, code)

	var result models.VTONResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "data:image/png;base64,AAAA", result.Image)
	assert.Equal(t, 5, result.Analysis.Scores.Comfort)

	req := s.generator.lastReq
	assert.Equal(t, models.ProviderGoogle, req.Provider)
	assert.Equal(t, "AIzaTestKey", req.Google.APIKey)
	assert.Equal(t, "gemini-3-pro-image-preview", req.Google.Model)
	assert.Equal(t, models.EN, req.Language)
	assert.Equal(t, "roll up the sleeves", req.Instruction)
	assert.Equal(t, "image/png", req.UserImage.MIMEType)
	assert.Equal(t, "image/jpeg", req.GarmentImage.MIMEType)
	assert.Equal(t, test.PNGBase64(2, 2), req.GarmentImage.Data)

	code, body = test.InternalRequestJSON(s.e, http.MethodGet, "/tryon/status", nil)
	require.Equal(t, http.StatusOK, code)
	var snapshot models.SessionOut
	require.NoError(t, json.Unmarshal(body, &snapshot))
	assert.Equal(t, models.StatusComplete, snapshot.Status)
	assert.False(t, snapshot.InFlight)
	require.NotNil(t, snapshot.Result)
	assert.Equal(t, result.Image, snapshot.Result.Image)
}

func TestGenerateMultipartUpload(t *testing.T) {
	s := setupTestServer(t)
	_, err := s.settings.SaveGoogleKey(context.Background(), "AIzaTestKey")
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range []string{"user_image", "garment_image"} {
		part, err := writer.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(test.PNGBytes(4, 4))
		require.NoError(t, err)
	}
	require.NoError(t, writer.WriteField("instruction", "belted"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/tryon/generate", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	last := s.generator.lastReq
	assert.Equal(t, "belted", last.Instruction)
	assert.Equal(t, "image/png", last.UserImage.MIMEType)
	assert.Equal(t, test.PNGBase64(4, 4), last.UserImage.Data)
}

func TestGenerateMultipartRejectsNonImage(t *testing.T) {
	s := setupTestServer(t)
	_, err := s.settings.SaveGoogleKey(context.Background(), "AIzaTestKey")
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("user_image", "notes.txt")
	require.NoError(t, err)
	part.Write([]byte("definitely not an image"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/tryon/generate", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.generator.calls)
}

func TestGenerateErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrNoImageProduced, http.StatusUnprocessableEntity},
		{&services.UpstreamAPIError{Status: 500, Message: "boom"}, http.StatusBadGateway},
		{&services.NonJSONResponseError{Endpoint: "http://x", Snippet: "<html>"}, http.StatusBadGateway},
		{&services.MalformedCredentialError{Reason: "bad key"}, http.StatusBadRequest},
		{errors.New("Google 403 Forbidden: Check API Key or Model Access."), http.StatusBadGateway},
	}
	for _, tc := range cases {
		s := setupTestServer(t)
		_, err := s.settings.SaveGoogleKey(context.Background(), "AIzaTestKey")
		require.NoError(t, err)
		s.generator.err = tc.err
		s.generator.result = nil

		code, body := test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", validTryOnIn())
		assert.Equal(t, tc.status, code, tc.err.Error())
		var out map[string]string
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, tc.err.Error(), out["error"])

		snapshot := s.session.Snapshot()
		assert.Equal(t, models.StatusError, snapshot.Status)
		require.NotNil(t, snapshot.ErrMessage)
		assert.Equal(t, tc.err.Error(), *snapshot.ErrMessage)
	}
}

func TestResetAndCloseResult(t *testing.T) {
	s := setupTestServer(t)
	_, err := s.settings.SaveGoogleKey(context.Background(), "AIzaTestKey")
	require.NoError(t, err)

	code, _ := test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", validTryOnIn())
	require.Equal(t, http.StatusOK, code)

	code, body := test.InternalRequestJSON(s.e, http.MethodDelete, "/tryon/result", nil)
	require.Equal(t, http.StatusOK, code)
	var snapshot models.SessionOut
	require.NoError(t, json.Unmarshal(body, &snapshot))
	assert.Equal(t, models.StatusIdle, snapshot.Status)
	assert.Nil(t, snapshot.Result)

	s.generator.err = errors.New("boom")
	code, _ = test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/generate", validTryOnIn())
	require.Equal(t, http.StatusBadGateway, code)

	code, body = test.InternalRequestJSON(s.e, http.MethodPost, "/tryon/reset", nil)
	require.Equal(t, http.StatusOK, code)
	snapshot = models.SessionOut{}
	require.NoError(t, json.Unmarshal(body, &snapshot))
	assert.Equal(t, models.StatusIdle, snapshot.Status)
	assert.Nil(t, snapshot.ErrMessage)
	assert.False(t, snapshot.InFlight)
}
