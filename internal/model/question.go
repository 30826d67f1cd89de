package model

import "gorm.io/datatypes"

const QuestionTypeMultiple = "multiple"

// Question 技能题库中的单选题。同一技能下 Number 从 1 连续编号，
// (skill_id, number) 唯一，题目总数即会话的 total_questions。
// swagger:model Question
type Question struct {
	BaseModel
	SkillID          uint           `gorm:"index;type:bigint unsigned;uniqueIndex:idx_skill_number" json:"skillId"`
	Number           int            `gorm:"not null;uniqueIndex:idx_skill_number" json:"number"`
	Subcategory      string         `gorm:"size:255;index;not null" json:"subcategory"`
	Type             string         `gorm:"size:50;not null;default:'multiple'" json:"type"`
	Text             string         `gorm:"type:text;not null" json:"text"`
	Options          datatypes.JSON `gorm:"type:json" json:"options"` // []string, 2-6项
	CorrectAnswer    string         `gorm:"type:text;not null" json:"-"`
	RecommendedTools datatypes.JSON `gorm:"type:json" json:"recommendedTools,omitempty"` // []string, 仅第1题携带
}

func (Question) TableName() string {
	return "assessment_questions"
}
