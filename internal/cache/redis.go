// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/game"
)

// DefaultQueueName is the Redis list the historian drains action records from.
const DefaultQueueName = "uno_actions"

// ConnectRedis opens a client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (default 0)
//
// The connection is verified with a ping before returning.
func ConnectRedis() (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// QueueName resolves the historian queue name from HISTORIAN_QUEUE_NAME.
func QueueName() string {
	return getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
}

// Publisher pushes action records onto the historian queue. It satisfies
// game.Recorder; publishing happens on a goroutine so game logic never
// waits on Redis.
type Publisher struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// NewPublisher wires a recorder around an open Redis client.
func NewPublisher(rdb *redis.Client, logger *logrus.Logger) *Publisher {
	return &Publisher{rdb: rdb, queue: QueueName(), logger: logger}
}

// Record serializes the record and RPushes it onto the queue. Failures are
// logged and dropped; history is best-effort and never blocks play.
func (p *Publisher) Record(rec game.ActionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		p.logger.Warnf("failed to marshal action record for room %s: %v", rec.RoomCode, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
			p.logger.Warnf("failed to enqueue action record for room %s: %v", rec.RoomCode, err)
		}
	}()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
