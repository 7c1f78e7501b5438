package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/internal/queue"
	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/pkg/chat"
	queuePkg "github.com/jwebster45206/dialogue-engine/pkg/queue"
)

const (
	// dequeueTimeout bounds each BLPop so shutdown is noticed promptly.
	dequeueTimeout = 5 * time.Second

	// sessionLockTTL caps how long a crashed worker can hold a session.
	sessionLockTTL = 30 * time.Second
)

// releaseScript deletes a session lock only when this worker still owns it,
// so an expired-and-reacquired lock is never released out from under the
// new owner.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Worker pulls requests off the shared queue and processes them. Multiple
// workers may run against the same queue; per-session Redis locks keep two
// workers from mutating one conversation at once.
type Worker struct {
	id          string
	requests    *queue.RequestQueue
	processor   *TurnProcessor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a worker. An empty workerID gets a generated one.
func New(requests *queue.RequestQueue, processor *TurnProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		requests:    requests,
		processor:   processor,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing requests from the queue. It blocks until Stop is
// called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
// under the session lock.
func (w *Worker) processNextRequest() error {
	ctx, cancel := context.WithTimeout(w.ctx, dequeueTimeout+time.Second)
	defer cancel()

	req, err := w.requests.BlockingDequeueRequest(ctx, dequeueTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Queue is empty or timeout occurred, which is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"session_id", req.SessionID.String(),
	)

	locked, err := w.acquireSessionLock(req.SessionID)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		// Another worker holds this session. Re-queue at the end and
		// move on to the next request.
		w.log.Info("Session already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		if err := w.requests.EnqueueRequest(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseSessionLock(req.SessionID)
	return w.processRequest(req)
}

// acquireSessionLock attempts to take the cross-process lock for a session.
// Returns false when another worker holds it.
func (w *Worker) acquireSessionLock(sessionID uuid.UUID) (bool, error) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())
	return w.redisClient.SetNX(w.ctx, lockKey, w.id, sessionLockTTL).Result()
}

func (w *Worker) releaseSessionLock(sessionID uuid.UUID) {
	lockKey := fmt.Sprintf("session-lock:%s", sessionID.String())
	if err := releaseScript.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release session lock", "error", err, "session_id", sessionID.String())
	}
}

// processRequest dispatches a single dequeued request.
func (w *Worker) processRequest(req *queuePkg.Request) error {
	switch req.Type {
	case queuePkg.RequestTypeTurn:
		return w.processTurn(req)
	case queuePkg.RequestTypeSummarize:
		return w.processSummarize(req)
	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
}

// processTurn runs one queued player turn and stores the result for polling.
func (w *Worker) processTurn(req *queuePkg.Request) error {
	start := time.Now()

	if err := w.broadcaster.PublishRequestProcessing(w.ctx, req.SessionID, req.RequestID, string(req.Type)); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
		// Don't fail the request just because event publishing failed
	}
	w.setResult(req.RequestID, queuePkg.ResultStatusProcessing, nil, "")

	resp, err := w.processor.ProcessTurn(w.ctx, chat.TurnRequest{
		SessionID: req.SessionID,
		Text:      req.Message,
		TurnType:  req.TurnType,
		Topics:    req.Topics,
	})
	if err != nil {
		w.log.Error("Failed to process turn",
			"error", err,
			"worker_id", w.id,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		w.setResult(req.RequestID, queuePkg.ResultStatusFailed, nil, err.Error())
		if pubErr := w.broadcaster.PublishRequestFailed(w.ctx, req.SessionID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process turn request: %w", err)
	}

	w.setResult(req.RequestID, queuePkg.ResultStatusCompleted, resp, "")

	w.log.Info("Turn request processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := map[string]interface{}{
		"reply":       resp.Reply,
		"clean_text":  resp.CleanText,
		"phase":       resp.Phase,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err := w.broadcaster.PublishRequestCompleted(w.ctx, req.SessionID, req.RequestID, result); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}
	return nil
}

// processSummarize runs one queued history compression job. A stale job
// (threshold no longer met) completes quietly without an event.
func (w *Worker) processSummarize(req *queuePkg.Request) error {
	if err := w.broadcaster.PublishRequestProcessing(w.ctx, req.SessionID, req.RequestID, string(req.Type)); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
	}

	summary, err := w.processor.ProcessSummarize(w.ctx, req.SessionID)
	if err != nil {
		w.log.Error("Failed to process summarize request",
			"error", err,
			"worker_id", w.id,
			"request_id", req.RequestID,
			"session_id", req.SessionID.String(),
		)
		if pubErr := w.broadcaster.PublishRequestFailed(w.ctx, req.SessionID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process summarize request: %w", err)
	}
	if summary == nil {
		w.log.Debug("Summarize request completed without a new summary",
			"worker_id", w.id,
			"request_id", req.RequestID,
		)
		return nil
	}

	if err := w.broadcaster.PublishSummaryUpdated(w.ctx, req.SessionID, summary.FirstSeq, summary.LastSeq); err != nil {
		w.log.Error("Failed to publish summary event", "error", err)
	}
	return nil
}

// setResult stores the request outcome for the poll endpoint. Result
// storage is best effort; a failed write only degrades polling.
func (w *Worker) setResult(requestID string, status queuePkg.ResultStatus, resp *chat.TurnResponse, errMsg string) {
	res := queuePkg.NewResult(requestID, status)
	res.Response = resp
	res.Error = errMsg
	if err := w.requests.SetResult(w.ctx, res); err != nil {
		w.log.Error("Failed to store request result", "error", err, "request_id", requestID)
	}
}
