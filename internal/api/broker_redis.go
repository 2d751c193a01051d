package api

import (
	"context"
	"encoding/json"
	"os"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// EventBroker publishes and streams solve events. Implementations: in-memory
// Broker for single-process deployments, RedisBroker when workers and API run
// in separate processes.
type EventBroker interface {
	Subscribe(solveID string) chan SSEEvent
	Unsubscribe(solveID string, ch chan SSEEvent)
	Publish(solveID string, evt SSEEvent)
}

// RedisBroker implements EventBroker over Redis Pub/Sub
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker() (*RedisBroker, error) {
	url := os.Getenv("REDIS_URL")
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	return &RedisBroker{rdb: rdb}, nil
}

func (b *RedisBroker) Subscribe(solveID string) chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(solveID))
	// initial consume to ensure subscription
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt SSEEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(solveID string, ch chan SSEEvent) {
	// closing the channel suffices; the reader goroutine exits when the
	// underlying PubSub channel closes on connection loss
	close(ch)
}

func (b *RedisBroker) Publish(solveID string, evt SSEEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(solveID), data).Err()
}

func (b *RedisBroker) chanName(solveID string) string { return "solve:" + solveID }
