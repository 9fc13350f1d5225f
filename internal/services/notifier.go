package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lyrebird-health/flarelog-backend/internal/logger"
)

// DiscoveryNotifier tells the app's push layer that an analysis run changed
// a user's discovery set, so clients can refresh their insights feed.
type DiscoveryNotifier interface {
	PublishRunCompleted(ctx context.Context, userID uuid.UUID, newDiscoveries int) error
	Close() error
}

type runCompletedMessage struct {
	UserID         string    `json:"user_id"`
	NewDiscoveries int       `json:"new_discoveries"`
	CompletedAt    time.Time `json:"completed_at"`
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewDiscoveryNotifier(log *logger.Logger) (DiscoveryNotifier, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(os.Getenv("REDIS_DISCOVERY_CHANNEL"))
	if channel == "" {
		channel = "discoveries"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("service", "DiscoveryNotifier"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (n *redisNotifier) PublishRunCompleted(ctx context.Context, userID uuid.UUID, newDiscoveries int) error {
	raw, err := json.Marshal(runCompletedMessage{
		UserID:         userID.String(),
		NewDiscoveries: newDiscoveries,
		CompletedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *redisNotifier) Close() error {
	return n.rdb.Close()
}
