package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/queue"
)

// Drops test requests on the shared queue so a running worker can be
// watched end to end without the API in front.
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	sessionID := flag.String("session", "", "Session ID to target (defaults to a throwaway ID)")
	message := flag.String("message", "Hello, anyone on this channel?", "Player turn text")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	fmt.Println("Connected to Redis successfully!")

	target := uuid.New()
	if *sessionID != "" {
		parsed, err := uuid.Parse(*sessionID)
		if err != nil {
			log.Fatal("Invalid session ID:", err)
		}
		target = parsed
	}

	// A player turn
	turnReq := queue.NewTurnRequest(target, *message, "", nil)
	enqueue(ctx, client, turnReq)
	fmt.Printf("Enqueued turn request: %s\n", turnReq.RequestID)

	// A summarize job for the same session
	sumReq := queue.NewSummarizeRequest(target)
	enqueue(ctx, client, sumReq)
	fmt.Printf("Enqueued summarize request: %s\n", sumReq.RequestID)

	depth, err := client.LLen(ctx, "requests").Result()
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}

	fmt.Printf("\nQueue depth: %d requests\n", depth)
	fmt.Println("\nStart the worker to see it process these requests:")
	fmt.Println("   go run cmd/worker/main.go")
}

func enqueue(ctx context.Context, client *redis.Client, req *queue.Request) {
	data, err := json.Marshal(req)
	if err != nil {
		log.Fatal("Failed to marshal request:", err)
	}
	if err := client.RPush(ctx, "requests", data).Err(); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}
}
