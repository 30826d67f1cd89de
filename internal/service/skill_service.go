package service

import (
	"errors"
	"skill_assessment_backend/internal/model"
	"skill_assessment_backend/internal/repository"
	"skill_assessment_backend/internal/util"

	"gorm.io/gorm"
)

type SkillService struct {
	Skills    *repository.SkillRepository
	Questions *repository.QuestionRepository
}

func NewSkillService(skills *repository.SkillRepository, questions *repository.QuestionRepository) *SkillService {
	return &SkillService{Skills: skills, Questions: questions}
}

type CreateSkillRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateSkillRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type SkillListResponse struct {
	Skills          []model.Skill `json:"skills"`
	TotalSkills     int64         `json:"totalSkills"`
	TotalPages      int           `json:"totalPages"`
	CurrentPage     int           `json:"currentPage"`
	HasNextPage     bool          `json:"hasNextPage"`
	HasPreviousPage bool          `json:"hasPreviousPage"`
}

func (s *SkillService) CreateSkill(req *CreateSkillRequest) (*model.Skill, error) {
	skill := &model.Skill{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.Skills.Create(skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *SkillService) GetSkill(id uint) (*model.Skill, error) {
	skill, err := s.Skills.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSkillNotFound
		}
		return nil, err
	}
	return skill, nil
}

func (s *SkillService) ListSkills(page, limit int) (*SkillListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	skills, total, err := s.Skills.List(page, limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &SkillListResponse{
		Skills:          skills,
		TotalSkills:     total,
		TotalPages:      totalPages,
		CurrentPage:     page,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}, nil
}

func (s *SkillService) UpdateSkill(id uint, req *UpdateSkillRequest) (*model.Skill, error) {
	skill, err := s.GetSkill(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		skill.Name = req.Name
	}
	if req.Description != "" {
		skill.Description = req.Description
	}

	if err := s.Skills.Update(skill); err != nil {
		return nil, err
	}
	return skill, nil
}

// DeleteSkill 删除技能并级联清掉它的题库
func (s *SkillService) DeleteSkill(id uint) error {
	if _, err := s.GetSkill(id); err != nil {
		return err
	}
	if err := s.Questions.DeleteBySkill(id); err != nil {
		return err
	}
	return s.Skills.Delete(id)
}
