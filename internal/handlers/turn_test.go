package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intqueue "github.com/jwebster45206/dialogue-engine/internal/queue"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/internal/worker"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	queuePkg "github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

// newTurnFixture wires a mock-backed sync turn handler with one session in
// storage.
func newTurnFixture(t *testing.T) (*TurnHandler, *storage.MockStorage, *services.MockLLMService, *session.Session) {
	t.Helper()
	logger := testLogger()
	mockStorage := storage.NewMockStorage()
	mockLLM := services.NewMockLLMService()

	sc := testScene()
	mockStorage.AddScene(sc.FileName, sc)
	sess := session.New(sc.FileName, narrative.PhaseGreeting)
	require.NoError(t, mockStorage.SaveSession(context.Background(), sess.ID, sess))

	processor := worker.NewTurnProcessor(mockStorage, mockLLM, nil, logger)
	handler := NewTurnHandler(mockStorage, processor, nil, nil, logger)
	return handler, mockStorage, mockLLM, sess
}

func postTurn(t *testing.T, handler *TurnHandler, req chat.TurnRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/turns", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httpReq)
	return rr
}

func TestTurnHandler_Sync(t *testing.T) {
	handler, mockStorage, mockLLM, sess := newTurnFixture(t)
	mockLLM.SetChatResponse("[warm] Welcome aboard. Watch your step.")

	rr := postTurn(t, handler, chat.TurnRequest{SessionID: sess.ID, Text: "Hello there."})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp chat.TurnResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, sess.ID, resp.SessionID)
	assert.Equal(t, "[warm] Welcome aboard. Watch your step.", resp.Reply)
	assert.Equal(t, "Welcome aboard. Watch your step.", resp.CleanText)
	require.Len(t, resp.Cues, 1)
	assert.Equal(t, "warm", resp.Cues[0].Raw)
	assert.Equal(t, "greeting", resp.Phase)

	// Both turns landed in the stored session.
	saved, err := mockStorage.LoadSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Dialogue.History, 2)
	assert.Equal(t, 2, resp.SequenceNumber)
}

func TestTurnHandler_Validation(t *testing.T) {
	handler, _, _, sess := newTurnFixture(t)

	tests := []struct {
		name string
		req  chat.TurnRequest
		want int
	}{
		{"missing session", chat.TurnRequest{Text: "hi"}, http.StatusBadRequest},
		{"empty text", chat.TurnRequest{SessionID: sess.ID}, http.StatusBadRequest},
		{"unknown session", chat.TurnRequest{SessionID: uuid.New(), Text: "hi"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postTurn(t, handler, tt.req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestTurnHandler_CommandShortcut(t *testing.T) {
	handler, _, mockLLM, sess := newTurnFixture(t)
	mockLLM.SetChatError(assert.AnError) // the LLM must not be reached

	rr := postTurn(t, handler, chat.TurnRequest{SessionID: sess.ID, Text: "status"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp chat.TurnResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp.Reply, "Phase: greeting")
	assert.Empty(t, mockLLM.GetChatCalls())
}

func TestTurnHandler_HazardShortCircuit(t *testing.T) {
	handler, _, mockLLM, sess := newTurnFixture(t)
	mockLLM.SetChatError(assert.AnError)

	// o2_warning has scripted variations, so the first warning never hits
	// the LLM.
	rr := postTurn(t, handler, chat.TurnRequest{SessionID: sess.ID, Text: "How is the oxygen holding up?"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp chat.TurnResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.CleanText)
	assert.Empty(t, mockLLM.GetChatCalls())
}

func TestTurnHandler_LLMFailure(t *testing.T) {
	handler, _, mockLLM, sess := newTurnFixture(t)
	mockLLM.SetChatError(assert.AnError)

	rr := postTurn(t, handler, chat.TurnRequest{SessionID: sess.ID, Text: "Tell me about this place."})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestTurnHandler_InvalidJSON(t *testing.T) {
	handler, _, _, _ := newTurnFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/turns", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTurnHandler_AsyncEnqueueAndPoll(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	logger := testLogger()

	client, err := intqueue.NewClient(mr.Addr(), logger)
	require.NoError(t, err)
	defer client.Close()
	requests := intqueue.NewRequestQueue(client)

	mockStorage := storage.NewMockStorage()
	sc := testScene()
	mockStorage.AddScene(sc.FileName, sc)
	sess := session.New(sc.FileName, narrative.PhaseGreeting)
	require.NoError(t, mockStorage.SaveSession(context.Background(), sess.ID, sess))

	processor := worker.NewTurnProcessor(mockStorage, services.NewMockLLMService(), requests, logger)
	handler := NewTurnHandler(mockStorage, processor, requests, nil, logger)

	rr := postTurn(t, handler, chat.TurnRequest{SessionID: sess.ID, Text: "Hello?"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var accepted AcceptedResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&accepted))
	assert.NotEmpty(t, accepted.RequestID)
	assert.Equal(t, string(queuePkg.ResultStatusQueued), accepted.Status)

	depth, err := requests.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	// Poll returns the queued placeholder until a worker picks it up.
	pollURL := "/v1/turns/" + sess.ID.String() + "/" + accepted.RequestID
	pollReq := httptest.NewRequest(http.MethodGet, pollURL, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, pollReq)
	require.Equal(t, http.StatusOK, rr.Code)

	var res queuePkg.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, queuePkg.ResultStatusQueued, res.Status)

	// Commands still answer synchronously with the queue enabled.
	rr = postTurn(t, handler, chat.TurnRequest{SessionID: sess.ID, Text: "facts"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTurnHandler_PollUnknownRequest(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	logger := testLogger()

	client, err := intqueue.NewClient(mr.Addr(), logger)
	require.NoError(t, err)
	defer client.Close()
	requests := intqueue.NewRequestQueue(client)

	handler := NewTurnHandler(storage.NewMockStorage(), nil, requests, nil, logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/turns/"+uuid.NewString()+"/no-such-request", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
