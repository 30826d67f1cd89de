package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const assessmentEventChannel = "assessment.events"

// AssessmentEvent 评估完成后对外广播的事件载荷
type AssessmentEvent struct {
	Event        string    `json:"event"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `json:"user_id"`
	PointsEarned int       `json:"points_earned"`
}

// EventPublisher 通知下沉，fire-and-forget，不保证送达
type EventPublisher interface {
	Publish(ctx context.Context, event AssessmentEvent) error
}

// RedisNotifier 通过 Redis PUB/SUB 广播评估事件
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, event AssessmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, assessmentEventChannel, payload).Err()
}
