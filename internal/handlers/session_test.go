package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testScene() *scene.Scene {
	return &scene.Scene{
		ID:       "airlock_bay",
		Name:     "Airlock Bay Seven",
		FileName: "airlock_bay.json",
		NPC: scene.NPC{
			Name:    "Vesper",
			Persona: "A weary station engineer.",
		},
		OpeningLine:  "[sighing] Another visitor. What do you need?",
		HazardTopics: []string{"o2_warning"},
	}
}

func TestSessionHandler_Create(t *testing.T) {
	logger := testLogger()
	mockStorage := storage.NewMockStorage()
	mockStorage.AddScene("airlock_bay.json", testScene())
	handler := NewSessionHandler(mockStorage, nil, logger)

	body, _ := json.Marshal(CreateSessionRequest{Scene: "airlock_bay.json", PlayerName: "Riley"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var sess session.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sess))
	assert.Equal(t, "airlock_bay.json", sess.SceneID)
	assert.Equal(t, "Riley", sess.PlayerName)
	assert.Equal(t, narrative.PhaseGreeting, sess.Narrative.Current)

	// Opening line is recorded as the NPC's first turn, cue stripped.
	require.Len(t, sess.Dialogue.History, 1)
	assert.Equal(t, "Another visitor. What do you need?", sess.Dialogue.History[0].Text)
	assert.Equal(t, 1, sess.Dialogue.History[0].SequenceNumber)
}

func TestSessionHandler_Create_MissingScene(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), nil, testLogger())

	body, _ := json.Marshal(CreateSessionRequest{Scene: "nope.json"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_Create_RequiresScene(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_ReadAndDelete(t *testing.T) {
	logger := testLogger()
	mockStorage := storage.NewMockStorage()
	sess := session.New("airlock_bay.json", narrative.PhaseGreeting)
	require.NoError(t, mockStorage.SaveSession(context.Background(), sess.ID, sess))
	handler := NewSessionHandler(mockStorage, nil, logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sess.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sess.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_Read_InvalidID(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_Advance(t *testing.T) {
	logger := testLogger()
	mockStorage := storage.NewMockStorage()
	sess := session.New("airlock_bay.json", narrative.PhaseGreeting)
	require.NoError(t, mockStorage.SaveSession(context.Background(), sess.ID, sess))
	handler := NewSessionHandler(mockStorage, nil, logger)

	// Explicit legal target.
	body, _ := json.Marshal(AdvanceRequest{Phase: "working"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sess.ID.String()+"/advance", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AdvanceResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Advanced)
	assert.Equal(t, narrative.PhaseGreeting, resp.From)
	assert.Equal(t, narrative.PhaseWorking, resp.Context.Phase)
	assert.Equal(t, 0, resp.Context.TurnsInPhase)

	// Illegal target: greeting is not reachable from working.
	body, _ = json.Marshal(AdvanceRequest{Phase: "greeting"})
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sess.ID.String()+"/advance", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)

	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Advanced)
	assert.Equal(t, narrative.PhaseWorking, resp.Context.Phase)
}

func TestSessionHandler_Advance_DefaultTarget(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	sess := session.New("airlock_bay.json", narrative.PhaseGreeting)
	require.NoError(t, mockStorage.SaveSession(context.Background(), sess.ID, sess))
	handler := NewSessionHandler(mockStorage, nil, testLogger())

	// No body: the machine takes its first allowed transition.
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sess.ID.String()+"/advance", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AdvanceResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Advanced)
	assert.Equal(t, narrative.PhaseEstablishing, resp.Context.Phase)
}

func TestSessionHandler_End_MergesProfileFacts(t *testing.T) {
	logger := testLogger()
	mockStorage := storage.NewMockStorage()

	p := newTestProfile(t, mockStorage, "Riley")

	sess := session.New("airlock_bay.json", narrative.PhaseGreeting)
	sess.ProfileID = p.ID
	sess.Attach(nil, logger)
	sess.RecordPlayerTurn("Hi, my name is Riley.", "", nil)
	require.NoError(t, mockStorage.SaveSession(context.Background(), sess.ID, sess))

	handler := NewSessionHandler(mockStorage, nil, logger)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sess.ID.String()+"/end", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var ended session.Session
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ended))
	assert.True(t, ended.Ended)

	saved, err := mockStorage.LoadProfile(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Contains(t, saved.Facts, "Player's name: Riley")
	assert.Contains(t, saved.CompletedScenes, "airlock_bay.json")
}

func TestSessionHandler_UnknownAction(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	handler := NewSessionHandler(mockStorage, nil, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+uuid.NewString()+"/restart", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
