package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/infofoot/nexo-backend/internal/database"
	"github.com/infofoot/nexo-backend/internal/models"
)

// Mining event types pushed over Redis and WebSocket.
const (
	EventMiningStarted  = "mining_started"
	EventMiningUpdate   = "mining_update"
	EventMiningComplete = "mining_complete"
	EventNxoCollected   = "nxo_collected"
)

// MiningEvent is the payload broadcast whenever a user's mining state
// changes. Data carries the same projection /mining-data returns, so the
// client can render it without a follow-up poll.
type MiningEvent struct {
	Type      string             `json:"type"`
	UserID    string             `json:"user_id"`
	Data      *models.MiningData `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// EventPublisher is how the engine announces state changes. The feed is
// best-effort; /mining-data stays authoritative.
type EventPublisher interface {
	PublishMiningEvent(ctx context.Context, event MiningEvent) error
}

// MiningConn is the minimal interface our WebSocket implementation must satisfy.
type MiningConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// miningHub is a registry of connected users; one connection per user.
type miningHub struct {
	mu    sync.RWMutex
	conns map[string]MiningConn
}

var (
	hub          = &miningHub{conns: make(map[string]MiningConn)}
	redisStarted sync.Once
)

// RegisterMiningConn registers or replaces a user's connection.
func RegisterMiningConn(userID string, conn MiningConn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if old, ok := hub.conns[userID]; ok {
		old.Close()
	}
	hub.conns[userID] = conn
}

// UnregisterMiningConn removes the user's connection, but only if it is
// still the given one. A handler whose connection was replaced by a
// reconnect runs its deferred cleanup late and must not evict the
// replacement.
func UnregisterMiningConn(userID string, conn MiningConn) {
	hub.mu.Lock()
	if cur, ok := hub.conns[userID]; ok && cur == conn {
		delete(hub.conns, userID)
	}
	hub.mu.Unlock()
}

// FanOutMiningEvent delivers an event to the owning user's connection, if
// connected to this instance.
func FanOutMiningEvent(event MiningEvent) {
	hub.mu.RLock()
	conn, ok := hub.conns[event.UserID]
	hub.mu.RUnlock()
	if !ok {
		return
	}

	// Non-blocking best-effort send.
	go func(c MiningConn) {
		if err := c.WriteJSON(event); err != nil {
			log.Printf("error writing mining event to websocket: %v", err)
		}
	}(conn)
}

// RedisEventPublisher publishes engine events to the per-user channel.
type RedisEventPublisher struct{}

func NewRedisEventPublisher() *RedisEventPublisher {
	return &RedisEventPublisher{}
}

func (p *RedisEventPublisher) PublishMiningEvent(ctx context.Context, event MiningEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return database.RedisClient.Publish(ctx, "mining:user:"+event.UserID, data).Err()
}

// StartRedisMiningSubscriber ensures a single shared Redis listener per instance.
func StartRedisMiningSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; mining subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "mining:user:*")
			defer pubsub.Close()

			log.Println("✅ Mining Redis subscriber started (pattern: mining:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event MiningEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal mining event: %v", err)
					continue
				}

				FanOutMiningEvent(event)
			}
		}()
	}
}
