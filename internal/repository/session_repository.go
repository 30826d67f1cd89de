package repository

import (
	"skill_assessment_backend/internal/model"
	"skill_assessment_backend/internal/util"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.UserSession) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) FindByID(id string) (*model.UserSession, error) {
	var s model.UserSession
	err := r.DB.Where("id = ?", id).First(&s).Error
	return &s, err
}

// UpdateAnswersGuarded 条件更新：仅当库中作答数仍等于 expectedCount 时生效。
// 两个并发作答只有一个能通过，另一个 RowsAffected 为 0。
func (r *SessionRepository) UpdateAnswersGuarded(session *model.UserSession, expectedCount int) error {
	res := r.DB.Model(&model.UserSession{}).
		Where("id = ? AND actual_number_of_questions = ?", session.ID, expectedCount).
		Updates(map[string]interface{}{
			"answers":                    session.Answers,
			"actual_number_of_questions": session.AnsweredCount,
			"is_finished":                session.IsFinished,
			"status":                     session.Status,
			"finished_at":                session.FinishedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrAnswerConflict
	}
	return nil
}

func (r *SessionRepository) ListFinishedByUser(userID string, page, limit int) ([]model.UserSession, int64, error) {
	var sessions []model.UserSession
	var total int64
	query := r.DB.Model(&model.UserSession{}).
		Where("user_id = ? AND is_finished = ?", userID, true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("finished_at desc").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}
