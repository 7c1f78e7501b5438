package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// ttsCacheTTL keeps synthesized audio around long enough to cover repeated
// scripted lines (opening lines, escalation variations) across sessions.
const ttsCacheTTL = 24 * time.Hour

// CachingTTS wraps a TTSService with a cache keyed on the full synthesis
// request. Cache failures fall through to the backend; a broken cache slows
// speech down but never silences it.
type CachingTTS struct {
	tts    TTSService
	cache  Cache
	logger *slog.Logger
}

// Ensure CachingTTS implements TTSService interface
var _ TTSService = (*CachingTTS)(nil)

// NewCachingTTS wraps a TTS service with caching
func NewCachingTTS(tts TTSService, cache Cache, logger *slog.Logger) *CachingTTS {
	return &CachingTTS{
		tts:    tts,
		cache:  cache,
		logger: logger,
	}
}

// cacheKey derives a stable key from every field that changes the audio
func cacheKey(req SpeechRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.3f|%.3f|%.3f|%s", req.Voice, req.Rate, req.Pitch, req.Stability, req.Text)
	return "tts:" + hex.EncodeToString(h.Sum(nil))
}

// Synthesize returns cached audio when available, synthesizing and storing
// it otherwise
func (c *CachingTTS) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	key := cacheKey(req)

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("TTS cache read failed", "error", err)
	} else if cached != "" {
		c.logger.Debug("TTS cache hit", "key", key)
		return []byte(cached), nil
	}

	audio, err := c.tts.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, audio, ttsCacheTTL); err != nil {
		c.logger.Warn("TTS cache write failed", "error", err)
	}

	return audio, nil
}
