package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/queue"
)

const (
	// requestsKey is the global list all workers pull from.
	requestsKey = "requests"

	// resultTTL bounds how long a poll result stays readable.
	resultTTL = 10 * time.Minute
)

// RequestQueue manages the shared request list and per-request results.
// The API enqueues, workers dequeue, and the poll endpoint reads results.
type RequestQueue struct {
	client *Client
}

func NewRequestQueue(client *Client) *RequestQueue {
	return &RequestQueue{
		client: client,
	}
}

func resultKey(requestID string) string {
	return fmt.Sprintf("turn-result:%s", requestID)
}

// EnqueueRequest adds a request to the end of the global queue
func (rq *RequestQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := rq.client.rdb.RPush(ctx, requestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// DequeueRequest removes and returns the next request from the global queue
// Returns nil if queue is empty
func (rq *RequestQueue) DequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := rq.client.rdb.LPop(ctx, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// BlockingDequeueRequest blocks until a request is available or the timeout
// elapses. A nil request with nil error means the wait timed out.
func (rq *RequestQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := rq.client.rdb.BLPop(ctx, timeout, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Timed out with nothing queued
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	return req, nil
}

// Depth returns the number of requests in the global queue
func (rq *RequestQueue) Depth(ctx context.Context) (int, error) {
	count, err := rq.client.rdb.LLen(ctx, requestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}

// SetResult stores the current outcome of a request for polling
func (rq *RequestQueue) SetResult(ctx context.Context, res *queue.Result) error {
	data, err := res.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	if err := rq.client.rdb.Set(ctx, resultKey(res.RequestID), data, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// GetResult returns the stored outcome of a request
// Returns nil if no result exists (expired or never enqueued)
func (rq *RequestQueue) GetResult(ctx context.Context, requestID string) (*queue.Result, error) {
	data, err := rq.client.rdb.Get(ctx, resultKey(requestID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	res, err := queue.ResultFromJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return res, nil
}
