package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/emotion"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/textfilter"
)

// SpeechHandler synthesizes NPC lines to audio.
// Route: POST /v1/speech
type SpeechHandler struct {
	tts          services.TTSService
	director     *services.VoiceDirector
	speech       *textfilter.SpeechFilter
	storage      storage.Storage
	defaultVoice string
	logger       *slog.Logger
}

func NewSpeechHandler(tts services.TTSService, storage storage.Storage, defaultVoice string, logger *slog.Logger) *SpeechHandler {
	return &SpeechHandler{
		tts:          tts,
		director:     services.NewVoiceDirector(logger),
		speech:       textfilter.NewSpeechFilter(),
		storage:      storage,
		defaultVoice: defaultVoice,
		logger:       logger,
	}
}

// SynthesizeRequest is a raw NPC line to speak. Text may still carry
// bracketed performance cues; they are extracted here and steer the voice
// parameters instead of being read aloud.
type SynthesizeRequest struct {
	Text  string `json:"text"`
	Scene string `json:"scene,omitempty"` // scene filename supplying the NPC voice
	Voice string `json:"voice,omitempty"` // overrides the scene voice ID
}

func (h *SpeechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Text == "" {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "text is required")
		return
	}

	voice := scene.Voice{ID: h.defaultVoice}
	if req.Scene != "" {
		sc, err := h.storage.GetScene(r.Context(), req.Scene)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, h.logger, http.StatusBadRequest, "Failed to load scene: "+err.Error())
			return
		}
		if sc.NPC.Voice.ID != "" {
			voice = sc.NPC.Voice
		}
	}
	if req.Voice != "" {
		voice.ID = req.Voice
	}

	clean, raws := emotion.ExtractCues(req.Text)
	cues := emotion.CategorizeAll(raws)
	spoken := h.speech.NormalizeText(clean)

	speechReq := h.director.Direct(voice, spoken, cues)
	audio, err := h.tts.Synthesize(r.Context(), speechReq)
	if err != nil {
		h.logger.Error("Speech synthesis failed", "error", err, "voice", voice.ID)
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadGateway, "Speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Error("Failed to write audio response", "error", err)
	}
}
