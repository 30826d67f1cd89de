package model

// Skill 一个拥有题库的技能主题（如 JavaScript）
// swagger:model Skill
type Skill struct {
	BaseModel
	Name        string `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Skill) TableName() string {
	return "skills"
}
