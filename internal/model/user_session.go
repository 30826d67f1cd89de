package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SessionInProgress       = "in_progress"
	SessionCompleted        = "completed"
	SessionPendingQuestions = "pending_questions"

	// 声明但当前没有任何流转会产生这两个状态
	SessionAbandoned = "abandoned"
	SessionExpired   = "expired"
)

// SessionAnswer 会话中的一条作答记录
type SessionAnswer struct {
	QuestionNumber int    `json:"questionNumber"`
	Answer         string `json:"answer"`
}

// UserSession 一个用户对一个技能题库的作答会话。
// AnsweredCount 兼作"下一题指针"，不会超过 TotalQuestions；
// IsFinished 置位后会话只读，仅供评分读取。
// swagger:model UserSession
type UserSession struct {
	UUIDBase
	UserID         string         `gorm:"size:64;index;not null" json:"userId"`
	SkillID        uint           `gorm:"index;type:bigint unsigned" json:"skillId"`
	Answers        datatypes.JSON `gorm:"type:json" json:"answers"` // []SessionAnswer
	TotalQuestions int            `gorm:"default:0" json:"totalQuestions"`
	AnsweredCount  int            `gorm:"column:actual_number_of_questions;default:0" json:"actualNumberOfQuestions"`
	IsFinished     bool           `gorm:"default:false" json:"isFinished"`
	Status         string         `gorm:"size:20;default:'in_progress'" json:"status"`
	FinishedAt     *time.Time     `json:"finishedAt,omitempty"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
