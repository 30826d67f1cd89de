package repository

import (
	"skill_assessment_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// CreateBatch 同一事务内写入整套题目，保证编号序列不缺失
func (r *QuestionRepository) CreateBatch(questions []model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuestionRepository) FindBySkillOrdered(skillID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("skill_id = ?", skillID).Order("number asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) FindBySkillAndNumber(skillID uint, number int) (*model.Question, error) {
	var q model.Question
	err := r.DB.Where("skill_id = ? AND number = ?", skillID, number).First(&q).Error
	return &q, err
}

func (r *QuestionRepository) CountBySkill(skillID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("skill_id = ?", skillID).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) DeleteBySkill(skillID uint) error {
	return r.DB.Where("skill_id = ?", skillID).Delete(&model.Question{}).Error
}
