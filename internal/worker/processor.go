package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/internal/queue"
	"github.com/jwebster45206/dialogue-engine/internal/services"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/prompts"
	queuePkg "github.com/jwebster45206/dialogue-engine/pkg/queue"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
	"github.com/jwebster45206/dialogue-engine/pkg/textfilter"
)

const llmTimeout = 30 * time.Second

// TurnProcessor runs the core turn pipeline. It is used by both the HTTP
// handler (synchronously) and the worker (asynchronously).
type TurnProcessor struct {
	storage    storage.Storage
	llmService services.LLMService
	requests   *queue.RequestQueue // nil runs summarization inline
	speech     *textfilter.SpeechFilter
	logger     *slog.Logger

	// Per-session serialization for callers in this process. Cross-process
	// exclusion is the worker's Redis lock.
	mu           sync.Mutex
	sessionLocks map[uuid.UUID]*sync.Mutex
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(
	storage storage.Storage,
	llmService services.LLMService,
	requests *queue.RequestQueue,
	logger *slog.Logger,
) *TurnProcessor {
	return &TurnProcessor{
		storage:      storage,
		llmService:   llmService,
		requests:     requests,
		speech:       textfilter.NewSpeechFilter(),
		logger:       logger,
		sessionLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (p *TurnProcessor) lockSession(id uuid.UUID) func() {
	p.mu.Lock()
	m, ok := p.sessionLocks[id]
	if !ok {
		m = &sync.Mutex{}
		p.sessionLocks[id] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// hazardKeywords maps hazard topic ids to player phrasings that touch them.
// Topics without an entry trigger only on explicit request topics.
var hazardKeywords = map[string][]string{
	"o2_warning":      {"oxygen", "o2", "air supply", "breathing"},
	"radiation_zone":  {"radiation", "reactor", "dosimeter", "exposure"},
	"restricted_area": {"restricted", "sealed section", "off limits", "clearance"},
}

// detectHazardTopic returns the first scene hazard the player's turn
// touches, matching explicit request topics first and text keywords second.
func detectHazardTopic(sc *scene.Scene, message string, topics []string) string {
	if sc == nil || len(sc.HazardTopics) == 0 {
		return ""
	}

	declared := make(map[string]bool, len(topics))
	for _, t := range topics {
		declared[t] = true
	}
	lower := strings.ToLower(message)

	for _, topic := range sc.HazardTopics {
		if declared[topic] {
			return topic
		}
		for _, kw := range hazardKeywords[topic] {
			if strings.Contains(lower, kw) {
				return topic
			}
		}
	}
	return ""
}

// ProcessTurn runs one player turn end to end: records it, answers through
// the hazard ladder or the LLM, records the NPC reply, schedules history
// compression, and saves the session.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	unlock := p.lockSession(req.SessionID)
	defer unlock()

	sess, err := p.storage.LoadSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found: %s", req.SessionID.String())
	}

	sc, err := p.storage.GetScene(ctx, sess.SceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}

	sess.Attach(p.llmService, p.logger)
	sess.RecordPlayerTurn(req.Text, narrative.TurnType(req.TurnType), req.Topics)

	var npcText string
	if topic := detectHazardTopic(sc, req.Text, req.Topics); topic != "" && sess.ShouldWarn(topic) {
		hazard := sess.HazardDirective(topic, "")
		if hazard.Scripted {
			p.logger.Debug("Hazard answered with scripted variation",
				"session_id", sess.ID.String(),
				"topic", topic,
				"level", hazard.Level.Level)
			npcText = hazard.Text
		} else {
			npcText, err = p.generate(sess, sc, req.Text, hazard.Text)
		}
	} else {
		npcText, err = p.generate(sess, sc, req.Text, "")
	}
	if err != nil {
		return nil, err
	}

	result := sess.RecordNPCTurn(npcText)
	cleanText := p.speech.NormalizeText(result.CleanText)

	p.scheduleSummary(ctx, sess)

	if err := p.storage.SaveSession(ctx, sess.ID, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	resp := &chat.TurnResponse{
		SessionID:    sess.ID,
		Reply:        npcText,
		CleanText:    cleanText,
		Cues:         result.Cues,
		Phase:        string(sess.Narrative.Current),
		SessionEnded: sess.Ended,
	}
	if n := len(sess.Dialogue.History); n > 0 {
		resp.SequenceNumber = sess.Dialogue.History[n-1].SequenceNumber
	}
	return resp, nil
}

// generate builds the prompt and asks the LLM for the NPC's reply. directive
// carries an escalation tone instruction when the turn touched a hazard.
func (p *TurnProcessor) generate(sess *session.Session, sc *scene.Scene, userMessage, directive string) (string, error) {
	builder := prompts.New().
		WithSession(sess).
		WithScene(sc).
		WithUserMessage(userMessage, chat.ChatRoleUser)
	if directive != "" {
		builder.WithDirective(directive)
	}
	messages, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build chat messages: %w", err)
	}

	chatCtx, cancel := context.WithTimeout(context.Background(), llmTimeout)
	defer cancel()

	p.logger.Debug("Sending chat request to LLM", "session_id", sess.ID.String(), "message_count", len(messages))
	response, err := p.llmService.Chat(chatCtx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM chat failed: %w", err)
	}

	return strings.TrimRight(response.Message, "\n"), nil
}

// scheduleSummary hands history compression to the queue when one is
// configured, otherwise runs it inline before the session is saved.
func (p *TurnProcessor) scheduleSummary(ctx context.Context, sess *session.Session) {
	if !sess.NeedsSummary() {
		return
	}

	if p.requests != nil {
		req := queuePkg.NewSummarizeRequest(sess.ID)
		if err := p.requests.EnqueueRequest(ctx, req); err != nil {
			p.logger.Error("Failed to enqueue summarize request",
				"error", err,
				"session_id", sess.ID.String())
		}
		return
	}

	sumCtx, cancel := context.WithTimeout(context.Background(), llmTimeout)
	defer cancel()
	sess.Dialogue.MaybeUpdateSummary(sumCtx)
}

// ProcessSummarize runs one scheduled history compression job. Returns the
// installed summary, or nil when the job was stale or the summarizer
// declined.
func (p *TurnProcessor) ProcessSummarize(ctx context.Context, sessionID uuid.UUID) (*dialogue.RollingSummary, error) {
	unlock := p.lockSession(sessionID)
	defer unlock()

	sess, err := p.storage.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found: %s", sessionID.String())
	}

	sess.Attach(p.llmService, p.logger)
	if !sess.NeedsSummary() {
		p.logger.Debug("Summarize request is stale, skipping", "session_id", sessionID.String())
		return nil, nil
	}

	sumCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()
	if !sess.Dialogue.MaybeUpdateSummary(sumCtx) {
		return nil, nil
	}

	if err := p.storage.SaveSession(ctx, sess.ID, sess); err != nil {
		return nil, fmt.Errorf("failed to save session after summarize: %w", err)
	}
	return sess.Dialogue.Summary, nil
}

// GetSession loads a session for callers outside the turn path.
func (p *TurnProcessor) GetSession(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	return p.storage.LoadSession(ctx, sessionID)
}
