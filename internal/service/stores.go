package service

import (
	"context"
	"skill_assessment_backend/internal/model"
)

// 仓储协作接口。服务只依赖这些最小面，便于测试时注入内存实现，
// internal/repository 中的 GORM 仓储是生产实现。

type SkillStore interface {
	FindByID(id uint) (*model.Skill, error)
}

type QuestionStore interface {
	CreateBatch(questions []model.Question) error
	FindBySkillOrdered(skillID uint) ([]model.Question, error)
	FindBySkillAndNumber(skillID uint, number int) (*model.Question, error)
	CountBySkill(skillID uint) (int64, error)
}

type SessionStore interface {
	Create(session *model.UserSession) error
	FindByID(id string) (*model.UserSession, error)
	UpdateAnswersGuarded(session *model.UserSession, expectedCount int) error
	ListFinishedByUser(userID string, page, limit int) ([]model.UserSession, int64, error)
}

type FeedbackStore interface {
	Create(fb *model.AssessmentFeedback) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.AssessmentFeedback, error)
	FindByID(id string) (*model.AssessmentFeedback, error)
}
