// Package historian drains action records from the Redis queue and persists
// them to Postgres in batches. It runs as its own binary so a history backlog
// never slows the game server.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wildfour/uno/internal/cache"
	"github.com/wildfour/uno/internal/database"
	"github.com/wildfour/uno/internal/game"
)

// Service owns the Redis drain loop, the batch buffer, and the inactivity
// sweep that marks stalled rooms abandoned.
type Service struct {
	rdb        *redis.Client
	pool       *pgxpool.Pool
	logger     *logrus.Logger
	queueName  string
	batchSize  int
	flushDelay time.Duration
	inactivity time.Duration

	lastActivity sync.Map // room code -> time.Time

	batchMu sync.Mutex
	batch   []game.ActionRecord

	ctx      context.Context
	cancelFn context.CancelFunc
}

// New builds a service from environment variables:
//   - HISTORIAN_BATCH_SIZE (default 20)
//   - HISTORIAN_FLUSH_MS (default 500)
//   - GAME_INACTIVITY_TIMEOUT_SEC (default 600)
func New(rdb *redis.Client, pool *pgxpool.Pool, logger *logrus.Logger) *Service {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	inactivitySec := getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		rdb:        rdb,
		pool:       pool,
		logger:     logger,
		queueName:  cache.QueueName(),
		batchSize:  batchSize,
		flushDelay: time.Duration(flushMs) * time.Millisecond,
		inactivity: time.Duration(inactivitySec) * time.Second,
		batch:      make([]game.ActionRecord, 0, batchSize),
		ctx:        ctx,
		cancelFn:   cancel,
	}
}

// Run starts the drain and sweep loops and blocks until Stop is called.
func (s *Service) Run() {
	go s.drainLoop()
	go s.inactivityLoop()

	s.logger.WithField("queue", s.queueName).Info("historian started")
	<-s.ctx.Done()
	s.flushBatch()
	s.logger.Info("historian shutting down")
}

// Stop gracefully stops the service after a final flush.
func (s *Service) Stop() {
	s.cancelFn()
}

// drainLoop BLPops records off the queue and buffers them, flushing when the
// batch fills or the flush interval elapses.
func (s *Service) drainLoop() {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.flushBatch()

		default:
			// The 3-second BLPop timeout keeps context cancellation responsive.
			res, err := s.rdb.BLPop(s.ctx, 3*time.Second, s.queueName).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && s.ctx.Err() == nil {
					s.logger.Warnf("BLPop: %v", err)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}

			var rec game.ActionRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				s.logger.Warnf("invalid action record: %v", err)
				continue
			}

			s.lastActivity.Store(rec.RoomCode, time.Now())
			s.append(rec)
		}
	}
}

func (s *Service) append(rec game.ActionRecord) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	s.batch = append(s.batch, rec)
	if len(s.batch) >= s.batchSize {
		s.flushLocked()
	}
}

func (s *Service) flushBatch() {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.flushLocked()
}

// flushLocked writes the buffered records in one transaction. Assumes the
// batch lock is held.
func (s *Service) flushLocked() {
	if len(s.batch) == 0 {
		return
	}
	records := make([]game.ActionRecord, len(s.batch))
	copy(records, s.batch)
	s.batch = s.batch[:0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.InsertActionRecords(ctx, s.pool, records); err != nil {
		s.logger.Errorf("flush batch: %v", err)
		return
	}
	s.logger.Debugf("flushed %d actions", len(records))
}

// inactivityLoop marks rooms abandoned when no action has arrived within the
// inactivity window. A room that ended normally was already finalized, so the
// conditional update in MarkGameAbandoned makes the sweep a no-op for it.
func (s *Service) inactivityLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			s.lastActivity.Range(func(key, val interface{}) bool {
				code, ok1 := key.(string)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > s.inactivity {
					s.markAbandoned(code)
					s.lastActivity.Delete(code)
				}
				return true
			})
		}
	}
}

func (s *Service) markAbandoned(roomCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.MarkGameAbandoned(ctx, s.pool, roomCode); err != nil {
		s.logger.Warnf("failed to mark room %s abandoned: %v", roomCode, err)
		return
	}
	s.logger.WithField("room", roomCode).Info("marked room abandoned")
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
