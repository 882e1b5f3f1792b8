package notification

import (
	"context"
	"encoding/json"
	"time"

	"toonlord/internal/logger"
	"toonlord/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"
	maxTries       = 3
)

type job struct {
	UserID  int    `json:"user_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	MangaID *int   `json:"manga_id,omitempty"`
	Tries   int    `json:"tries"`
}

// Service pushes notifications onto a redis queue and drains them into the
// notifications table from a background worker, so ledger commits never wait
// on feed writes.
type Service struct {
	redis *redis.Client
	repo  *Repository
}

func NewService(rdb *redis.Client, repo *Repository) *Service {
	return &Service{redis: rdb, repo: repo}
}

// Notify enqueues a feed entry for the user. It never blocks the caller on
// a redis failure beyond the push itself; errors are logged and dropped.
func (s *Service) Notify(userID int, kind, message string, mangaID *int) {
	payload, err := json.Marshal(job{
		UserID:  userID,
		Kind:    kind,
		Message: message,
		MangaID: mangaID,
	})
	if err != nil {
		logger.Errorf("notification: marshal job: %v", err)
		return
	}

	if err := s.redis.LPush(context.Background(), queueKey, payload).Err(); err != nil {
		logger.Errorf("notification: enqueue for user %d: %v", userID, err)
	}
}

// Start runs the queue worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			logger.Errorf("notification: dequeue: %v", err)
			time.Sleep(time.Second)
		}
		return
	}

	var j job
	if err := json.Unmarshal([]byte(result[1]), &j); err != nil {
		logger.Errorf("notification: bad job payload: %v", err)
		return
	}

	n := &Notification{
		UserID:   j.UserID,
		Category: categoryFor(j.Kind),
		Kind:     j.Kind,
		Message:  j.Message,
		MangaID:  j.MangaID,
	}

	if err := s.repo.Insert(ctx, n); err != nil {
		j.Tries++
		logger.Errorf("notification: insert for user %d (try %d): %v", j.UserID, j.Tries, err)
		if j.Tries >= maxTries {
			s.saveFailed(j, err)
			return
		}
		if payload, merr := json.Marshal(j); merr == nil {
			s.redis.LPush(context.Background(), queueKey, payload)
		}
		time.Sleep(time.Second)
		return
	}

	metrics.RecordNotification(j.Kind)
}

func (s *Service) saveFailed(j job, cause error) {
	payload, err := json.Marshal(map[string]interface{}{
		"job":       j,
		"error":     cause.Error(),
		"failed_at": time.Now(),
	})
	if err != nil {
		return
	}
	s.redis.LPush(context.Background(), failedQueueKey, payload)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return -1
	}
	return length
}
