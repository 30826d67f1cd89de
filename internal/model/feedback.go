package model

import "gorm.io/datatypes"

// CategoryResult 单个子类的正确率
type CategoryResult struct {
	Subcategory string  `json:"subcategory"`
	Percentage  float64 `json:"percentage"`
}

// RelevantSkill 得分低于50%的薄弱子类
type RelevantSkill struct {
	Skill string  `json:"skill"`
	Score float64 `json:"score"`
}

// RecommendedTool 建议学习的工具或框架
type RecommendedTool struct {
	Name string `json:"name"`
}

// UserAnswer 某道题的一条作答及其判定
type UserAnswer struct {
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuestionAnalysis 每道题的分析记录，未作答的题 UserAnswers 为空
type QuestionAnalysis struct {
	QuestionNumber int          `json:"questionNumber"`
	Question       string       `json:"question"`
	Subcategory    string       `json:"subcategory"`
	CorrectAnswer  string       `json:"correctAnswer"`
	UserAnswers    []UserAnswer `json:"userAnswers"`
}

// AssessmentFeedback 一次已完成会话的评分结果，创建后不再修改。
// SessionID 上的唯一索引保证一个会话只会被评分一次。
// IndustryAverage 目前与 OverallScore 同公式，等待外部基准数据源接入。
// swagger:model AssessmentFeedback
type AssessmentFeedback struct {
	UUIDBase
	UserID            string         `gorm:"size:64;index;not null" json:"userId"`
	SessionID         string         `gorm:"size:36;uniqueIndex;not null" json:"sessionId"`
	OverallScore      float64        `json:"overallScore"`
	IndustryAverage   float64        `json:"industryAverage"`
	PointsEarned      int            `json:"pointsEarned"`
	Results           datatypes.JSON `gorm:"type:json" json:"results"`           // []CategoryResult
	RelevantSkills    datatypes.JSON `gorm:"type:json" json:"relevantSkills"`    // []RelevantSkill
	RecommendedTools  datatypes.JSON `gorm:"type:json" json:"recommendedTools"`  // []RecommendedTool
	QuestionsAnalysis datatypes.JSON `gorm:"type:json" json:"questionsAnalysis"` // []QuestionAnalysis
	GoodAnswers       int            `gorm:"default:0" json:"goodAnswers"`
	BadAnswers        int            `gorm:"default:0" json:"badAnswers"`
}

func (AssessmentFeedback) TableName() string {
	return "assessment_feedbacks"
}
