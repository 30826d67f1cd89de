package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"skill_assessment_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const feedbackCacheTTL = 10 * time.Minute

type FeedbackRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewFeedbackRepository(db *gorm.DB, rdb *redis.Client) *FeedbackRepository {
	return &FeedbackRepository{DB: db, Redis: rdb}
}

func feedbackCacheKey(sessionID string) string {
	return fmt.Sprintf("feedback:session:%s", sessionID)
}

func (r *FeedbackRepository) Create(fb *model.AssessmentFeedback) error {
	if err := r.DB.Create(fb).Error; err != nil {
		return err
	}
	r.cache(fb)
	return nil
}

// FindBySessionID 反馈创建后不可变，读穿缓存
func (r *FeedbackRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.AssessmentFeedback, error) {
	if r.Redis != nil {
		raw, err := r.Redis.Get(ctx, feedbackCacheKey(sessionID)).Result()
		if err == nil {
			var fb model.AssessmentFeedback
			if json.Unmarshal([]byte(raw), &fb) == nil {
				return &fb, nil
			}
		} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	var fb model.AssessmentFeedback
	if err := r.DB.Where("session_id = ?", sessionID).First(&fb).Error; err != nil {
		return nil, err
	}
	r.cache(&fb)
	return &fb, nil
}

func (r *FeedbackRepository) FindByID(id string) (*model.AssessmentFeedback, error) {
	var fb model.AssessmentFeedback
	err := r.DB.Where("id = ?", id).First(&fb).Error
	return &fb, err
}

func (r *FeedbackRepository) cache(fb *model.AssessmentFeedback) {
	if r.Redis == nil {
		return
	}
	raw, err := json.Marshal(fb)
	if err != nil {
		return
	}
	r.Redis.Set(context.Background(), feedbackCacheKey(fb.SessionID), raw, feedbackCacheTTL)
}
