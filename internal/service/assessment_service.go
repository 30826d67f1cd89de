package service

import (
	"context"
	"encoding/json"
	"errors"
	"skill_assessment_backend/internal/model"
	"skill_assessment_backend/internal/util"
	"skill_assessment_backend/pkg/logger"
	"skill_assessment_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// quizRetryAfterSeconds 题目生成失败时给客户端的重试提示
const quizRetryAfterSeconds = 300

// PayloadArchiver 原始生成载荷的归档协作接口
type PayloadArchiver interface {
	ArchiveQuizPayload(ctx context.Context, skillID uint, payload []byte) error
}

type AssessmentService struct {
	Skills    SkillStore
	Questions QuestionStore
	Sessions  SessionStore
	Generator QuizSource
	Archive   PayloadArchiver
}

func NewAssessmentService(skills SkillStore, questions QuestionStore, sessions SessionStore, generator QuizSource, archive PayloadArchiver) *AssessmentService {
	return &AssessmentService{
		Skills:    skills,
		Questions: questions,
		Sessions:  sessions,
		Generator: generator,
		Archive:   archive,
	}
}

type StartAssessmentResponse struct {
	Session    *model.UserSession `json:"session"`
	SkillID    uint               `json:"skillId"`
	Status     string             `json:"status"`
	Message    string             `json:"message,omitempty"`
	RetryAfter int                `json:"retryAfter,omitempty"`
}

// StartAssessment 为用户创建一个作答会话。技能还没有题库时先调用
// 生成器建题；生成失败则降级为 pending_questions 会话而不是直接报错。
func (s *AssessmentService) StartAssessment(ctx context.Context, skillID uint, userID string) (*StartAssessmentResponse, error) {
	skill, err := s.Skills.FindByID(skillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSkillNotFound
		}
		return nil, err
	}

	total, err := s.Questions.CountBySkill(skillID)
	if err != nil {
		return nil, err
	}

	if total == 0 {
		quiz, raw, genErr := s.Generator.GenerateQuiz(ctx, skill.Name)
		if raw != nil && s.Archive != nil {
			if archErr := s.Archive.ArchiveQuizPayload(ctx, skillID, raw); archErr != nil {
				logger.Log.Warn("quiz payload archive failed", zap.Uint("skill_id", skillID), zap.Error(archErr))
			}
		}
		if genErr != nil {
			return s.createPendingSession(skillID, userID)
		}

		questions := make([]model.Question, len(quiz.Questions))
		for i, gq := range quiz.Questions {
			options, _ := json.Marshal(gq.Options)
			q := model.Question{
				SkillID:       skillID,
				Number:        gq.ID,
				Subcategory:   gq.Subcategory,
				Type:          model.QuestionTypeMultiple,
				Text:          gq.Question,
				Options:       datatypes.JSON(options),
				CorrectAnswer: gq.CorrectAnswer,
			}
			// 推荐工具是评估级元数据，只挂在第1题
			if i == 0 && len(gq.RecommendedTools) > 0 {
				tools, _ := json.Marshal(gq.RecommendedTools)
				q.RecommendedTools = datatypes.JSON(tools)
			}
			questions[i] = q
		}
		if err := s.Questions.CreateBatch(questions); err != nil {
			return nil, err
		}
		total = int64(len(questions))
	}

	session := &model.UserSession{
		UserID:         userID,
		SkillID:        skillID,
		Answers:        datatypes.JSON([]byte("[]")),
		TotalQuestions: int(total),
		AnsweredCount:  0,
		Status:         model.SessionInProgress,
	}
	if err := s.Sessions.Create(session); err != nil {
		return nil, err
	}

	monitoring.AssessmentsStarted.WithLabelValues(model.SessionInProgress).Inc()

	return &StartAssessmentResponse{
		Session: session,
		SkillID: skillID,
		Status:  "success",
	}, nil
}

func (s *AssessmentService) createPendingSession(skillID uint, userID string) (*StartAssessmentResponse, error) {
	session := &model.UserSession{
		UserID:         userID,
		SkillID:        skillID,
		Answers:        datatypes.JSON([]byte("[]")),
		TotalQuestions: 0,
		AnsweredCount:  0,
		Status:         model.SessionPendingQuestions,
	}
	if err := s.Sessions.Create(session); err != nil {
		return nil, err
	}

	monitoring.AssessmentsStarted.WithLabelValues(model.SessionPendingQuestions).Inc()

	return &StartAssessmentResponse{
		Session:    session,
		SkillID:    skillID,
		Status:     "pending",
		Message:    "Quiz generation is temporarily unavailable. Please try again in a few minutes.",
		RetryAfter: quizRetryAfterSeconds,
	}, nil
}

func (s *AssessmentService) GetSession(id string) (*model.UserSession, error) {
	session, err := s.Sessions.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

type QuestionViewRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	UserID    string `json:"userId" binding:"required"`
	Number    int    `json:"number"`
}

type QuestionView struct {
	Number           int      `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	Subcategory      string   `json:"subcategory"`
	Type             string   `json:"type"`
	RecommendedTools []string `json:"recommendedTools,omitempty"`
	HasNext          bool     `json:"hasNext"`
	HasPrevious      bool     `json:"hasPrevious"`
	NextNumber       *int     `json:"nextQuestionId,omitempty"`
}

// GetQuestion 返回会话内某道题的展示数据，绝不包含正确答案
func (s *AssessmentService) GetQuestion(req QuestionViewRequest) (*QuestionView, error) {
	session, err := s.loadOpenSession(req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Number < 1 || req.Number > session.TotalQuestions {
		return nil, util.ErrQuestionOutOfRange
	}

	question, err := s.Questions.FindBySkillAndNumber(session.SkillID, req.Number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	var options []string
	if err := json.Unmarshal(question.Options, &options); err != nil {
		return nil, err
	}
	var tools []string
	if len(question.RecommendedTools) > 0 {
		json.Unmarshal(question.RecommendedTools, &tools)
	}

	view := &QuestionView{
		Number:           question.Number,
		Text:             question.Text,
		Options:          options,
		Subcategory:      question.Subcategory,
		Type:             question.Type,
		RecommendedTools: tools,
		HasNext:          req.Number < session.TotalQuestions,
		HasPrevious:      req.Number > 1,
	}
	if view.HasNext {
		next := req.Number + 1
		view.NextNumber = &next
	}
	return view, nil
}

type AnswerQuestionRequest struct {
	SessionID string `json:"idSession" binding:"required"`
	UserID    string `json:"idUser" binding:"required"`
	Number    int    `json:"-"`
	Answer    string `json:"answer" binding:"required"`
}

type AnswerQuestionResponse struct {
	Message      string `json:"message"`
	SessionID    string `json:"sessionId"`
	NextQuestion int    `json:"nextQuestion"`
	IsFinished   bool   `json:"isFinished"`
}

// AnswerQuestion 记录第N题的作答。边界规则：编号1起始、上界含
// total_questions、重复作答直接拒绝；答满最后一题时会话翻转为 completed。
func (s *AssessmentService) AnswerQuestion(req AnswerQuestionRequest) (*AnswerQuestionResponse, error) {
	if err := util.ValidateAnswer(req.Answer); err != nil {
		return nil, err
	}

	session, err := s.loadOpenSession(req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Number < 1 || req.Number > session.TotalQuestions {
		return nil, util.ErrQuestionOutOfRange
	}

	if _, err := s.Questions.FindBySkillAndNumber(session.SkillID, req.Number); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	answers, err := decodeAnswers(session)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		if a.QuestionNumber == req.Number {
			return nil, util.ErrAlreadyAnswered
		}
	}

	prevCount := session.AnsweredCount
	answers = append(answers, model.SessionAnswer{QuestionNumber: req.Number, Answer: req.Answer})
	if err := encodeAnswers(session, answers); err != nil {
		return nil, err
	}
	session.AnsweredCount = prevCount + 1

	if session.AnsweredCount == session.TotalQuestions {
		now := time.Now().UTC()
		session.IsFinished = true
		session.Status = model.SessionCompleted
		session.FinishedAt = &now
	}

	if err := s.Sessions.UpdateAnswersGuarded(session, prevCount); err != nil {
		return nil, err
	}

	return &AnswerQuestionResponse{
		Message:      "Answer recorded successfully",
		SessionID:    session.ID,
		NextQuestion: session.AnsweredCount + 1,
		IsFinished:   session.IsFinished,
	}, nil
}

// UpdateAnswer 修改已作答题目的答案，要求该题已经有作答记录
func (s *AssessmentService) UpdateAnswer(req AnswerQuestionRequest) (*AnswerQuestionResponse, error) {
	if err := util.ValidateAnswer(req.Answer); err != nil {
		return nil, err
	}

	session, err := s.loadOpenSession(req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Number < 1 || req.Number > session.TotalQuestions {
		return nil, util.ErrQuestionOutOfRange
	}

	answers, err := decodeAnswers(session)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range answers {
		if answers[i].QuestionNumber == req.Number {
			answers[i].Answer = req.Answer
			found = true
			break
		}
	}
	if !found {
		return nil, util.ErrNotAnswered
	}

	if err := encodeAnswers(session, answers); err != nil {
		return nil, err
	}
	if err := s.Sessions.UpdateAnswersGuarded(session, session.AnsweredCount); err != nil {
		return nil, err
	}

	return &AnswerQuestionResponse{
		Message:      "Answer updated successfully",
		SessionID:    session.ID,
		NextQuestion: session.AnsweredCount + 1,
		IsFinished:   session.IsFinished,
	}, nil
}

// loadOpenSession 取会话并执行进行中操作共有的守卫
func (s *AssessmentService) loadOpenSession(sessionID, userID string) (*model.UserSession, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.IsFinished {
		return nil, util.ErrSessionFinished
	}
	if session.UserID != userID {
		return nil, util.ErrUserMismatch
	}
	return session, nil
}

func decodeAnswers(session *model.UserSession) ([]model.SessionAnswer, error) {
	if len(session.Answers) == 0 {
		return nil, nil
	}
	var answers []model.SessionAnswer
	if err := json.Unmarshal(session.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func encodeAnswers(session *model.UserSession, answers []model.SessionAnswer) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	session.Answers = datatypes.JSON(raw)
	return nil
}
