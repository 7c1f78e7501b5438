package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

func TestSceneHandler_List(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddScene("airlock_bay.json", testScene())
	handler := NewSceneHandler(mockStorage, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenes", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var scenes map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scenes))
	assert.Equal(t, "airlock_bay.json", scenes["Airlock Bay Seven"])
}

func TestSceneHandler_Get(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddScene("airlock_bay.json", testScene())
	handler := NewSceneHandler(mockStorage, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenes/airlock_bay.json", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var sc scene.Scene
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sc))
	assert.Equal(t, "Airlock Bay Seven", sc.Name)
	assert.Equal(t, "Vesper", sc.NPC.Name)
}

func TestSceneHandler_NotFound(t *testing.T) {
	handler := NewSceneHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/scenes/missing.json", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSceneHandler_RejectsTraversal(t *testing.T) {
	handler := NewSceneHandler(storage.NewMockStorage(), testLogger())

	for _, path := range []string{"/v1/scenes/..%2Fsecrets.json", "/v1/scenes/.."} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "path %s", path)
	}
}

func TestSceneHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSceneHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/scenes", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
