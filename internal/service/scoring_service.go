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

// ScoringService 把一个已完成会话的作答汇总成评分反馈。
// 评分本身是纯计算；持久化与事件通知是它唯一的副作用。
type ScoringService struct {
	Sessions  SessionStore
	Questions QuestionStore
	Feedbacks FeedbackStore
	Skills    SkillStore
	Publisher EventPublisher
}

func NewScoringService(sessions SessionStore, questions QuestionStore, feedbacks FeedbackStore, skills SkillStore, publisher EventPublisher) *ScoringService {
	return &ScoringService{
		Sessions:  sessions,
		Questions: questions,
		Feedbacks: feedbacks,
		Skills:    skills,
		Publisher: publisher,
	}
}

type EvaluationResponse struct {
	FeedbackID        string                   `json:"feedbackId"`
	SessionID         string                   `json:"sessionId"`
	UserID            string                   `json:"userId"`
	SkillID           uint                     `json:"skillId"`
	OverallScore      float64                  `json:"overallScore"`
	IndustryAverage   float64                  `json:"industryAverage"`
	Points            int                      `json:"points"`
	Results           []model.CategoryResult   `json:"results"`
	RelevantSkills    []model.RelevantSkill    `json:"relevantSkills"`
	RecommendedTools  []model.RecommendedTool  `json:"recommendedTools"`
	QuestionsAnalysis []model.QuestionAnalysis `json:"questionsAnalysis"`
	GoodAnswers       int                      `json:"goodAnswers"`
	BadAnswers        int                      `json:"badAnswers"`
	TotalQuestions    int                      `json:"totalQuestions"`
	TotalAnswered     int                      `json:"totalAnswered"`
	AlreadyEvaluated  bool                     `json:"alreadyEvaluated"`
}

// EvaluateSession 对已完成会话评分并持久化反馈。幂等：该会话已有
// 反馈时直接返回既有记录，不重算、不重复发事件。
func (s *ScoringService) EvaluateSession(ctx context.Context, sessionID string) (*EvaluationResponse, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	existing, err := s.Feedbacks.FindBySessionID(ctx, sessionID)
	if err == nil {
		return replayResponse(session, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !session.IsFinished {
		return nil, util.ErrSessionNotFinished
	}

	questions, err := s.Questions.FindBySkillOrdered(session.SkillID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrNoQuestions
	}

	answers, err := decodeAnswers(session)
	if err != nil {
		return nil, err
	}

	results := categoryScores(questions, answers)
	overall := meanCategoryScore(results)
	industry := industryAverage(results)
	points := pointsEarned(results)
	weak := relevantSkillsToFocusOn(results)
	analysis, good, bad := analyzeQuestions(questions, answers)
	tools := recommendedTools(questions)

	feedback, err := buildFeedback(session, overall, industry, points, results, weak, tools, analysis, good, bad)
	if err != nil {
		return nil, err
	}

	if err := s.Feedbacks.Create(feedback); err != nil {
		// 唯一索引竞争：并发的另一次评分先落库，退回幂等路径
		if prior, findErr := s.Feedbacks.FindBySessionID(ctx, sessionID); findErr == nil {
			return replayResponse(session, prior)
		}
		return nil, err
	}

	monitoring.AssessmentsEvaluated.Inc()

	// 通知失败不回滚已落库的反馈
	if s.Publisher != nil {
		event := AssessmentEvent{
			Event:        "skill_assessment_finished",
			Type:         "skill_assessment",
			CreatedAt:    time.Now().UTC(),
			UserID:       session.UserID,
			PointsEarned: points,
		}
		if pubErr := s.Publisher.Publish(ctx, event); pubErr != nil {
			logger.Log.Error("assessment event publish failed",
				zap.String("session_id", sessionID),
				zap.Error(pubErr))
		}
	}

	return &EvaluationResponse{
		FeedbackID:        feedback.ID,
		SessionID:         session.ID,
		UserID:            session.UserID,
		SkillID:           session.SkillID,
		OverallScore:      overall,
		IndustryAverage:   industry,
		Points:            points,
		Results:           results,
		RelevantSkills:    weak,
		RecommendedTools:  tools,
		QuestionsAnalysis: analysis,
		GoodAnswers:       good,
		BadAnswers:        bad,
		TotalQuestions:    len(questions),
		TotalAnswered:     len(answers),
	}, nil
}

// categoryScores 按子类聚合正确率，类目顺序跟随题目编号中的首次出现。
// 判分是严格字符串相等，不做大小写或空白归一化。
func categoryScores(questions []model.Question, answers []model.SessionAnswer) []model.CategoryResult {
	byNumber := make(map[int]string, len(answers))
	for _, a := range answers {
		byNumber[a.QuestionNumber] = a.Answer
	}

	type tally struct {
		correct int
		total   int
	}
	order := make([]string, 0)
	tallies := make(map[string]*tally)

	for _, q := range questions {
		t, ok := tallies[q.Subcategory]
		if !ok {
			t = &tally{}
			tallies[q.Subcategory] = t
			order = append(order, q.Subcategory)
		}
		t.total++
		if answer, answered := byNumber[q.Number]; answered && answer == q.CorrectAnswer {
			t.correct++
		}
	}

	results := make([]model.CategoryResult, 0, len(order))
	for _, category := range order {
		t := tallies[category]
		percentage := 0.0
		if t.total > 0 {
			percentage = float64(t.correct) / float64(t.total) * 100
		}
		results = append(results, model.CategoryResult{
			Subcategory: category,
			Percentage:  percentage,
		})
	}
	return results
}

// meanCategoryScore 各类目正确率的算术平均，不按题量加权
func meanCategoryScore(results []model.CategoryResult) float64 {
	if len(results) == 0 {
		return 0.0
	}
	total := 0.0
	for _, r := range results {
		total += r.Percentage
	}
	return total / float64(len(results))
}

// industryAverage 目前与总分同公式，基准数据源接入前保持占位
func industryAverage(results []model.CategoryResult) float64 {
	return meanCategoryScore(results)
}

// pointsEarned 按类目得分分档累加积分
func pointsEarned(results []model.CategoryResult) int {
	points := 0
	for _, r := range results {
		switch {
		case r.Percentage >= 90:
			points += 10
		case r.Percentage >= 75:
			points += 5
		case r.Percentage >= 50:
			points += 2
		default:
			points += 1
		}
	}
	return points
}

// relevantSkillsToFocusOn 得分严格低于50的类目
func relevantSkillsToFocusOn(results []model.CategoryResult) []model.RelevantSkill {
	skills := make([]model.RelevantSkill, 0)
	for _, r := range results {
		if r.Percentage < 50 {
			skills = append(skills, model.RelevantSkill{
				Skill: r.Subcategory,
				Score: r.Percentage,
			})
		}
	}
	return skills
}

// analyzeQuestions 为每道题生成分析记录（未作答的题也在内），
// 并统计判对/判错的作答条数
func analyzeQuestions(questions []model.Question, answers []model.SessionAnswer) ([]model.QuestionAnalysis, int, int) {
	analysis := make([]model.QuestionAnalysis, len(questions))
	index := make(map[int]int, len(questions))
	for i, q := range questions {
		analysis[i] = model.QuestionAnalysis{
			QuestionNumber: q.Number,
			Question:       q.Text,
			Subcategory:    q.Subcategory,
			CorrectAnswer:  q.CorrectAnswer,
			UserAnswers:    []model.UserAnswer{},
		}
		index[q.Number] = i
	}

	good, bad := 0, 0
	for _, a := range answers {
		i, ok := index[a.QuestionNumber]
		if !ok {
			continue
		}
		isCorrect := a.Answer == analysis[i].CorrectAnswer
		analysis[i].UserAnswers = append(analysis[i].UserAnswers, model.UserAnswer{
			Answer:    a.Answer,
			IsCorrect: isCorrect,
		})
		if isCorrect {
			good++
		} else {
			bad++
		}
	}
	return analysis, good, bad
}

// recommendedTools 取第1题携带的评估级工具推荐
func recommendedTools(questions []model.Question) []model.RecommendedTool {
	tools := make([]model.RecommendedTool, 0)
	if len(questions) == 0 || len(questions[0].RecommendedTools) == 0 {
		return tools
	}
	var names []string
	if err := json.Unmarshal(questions[0].RecommendedTools, &names); err != nil {
		return tools
	}
	for _, name := range names {
		tools = append(tools, model.RecommendedTool{Name: name})
	}
	return tools
}

func buildFeedback(session *model.UserSession, overall, industry float64, points int,
	results []model.CategoryResult, weak []model.RelevantSkill, tools []model.RecommendedTool,
	analysis []model.QuestionAnalysis, good, bad int) (*model.AssessmentFeedback, error) {

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	weakJSON, err := json.Marshal(weak)
	if err != nil {
		return nil, err
	}
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return nil, err
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, err
	}

	return &model.AssessmentFeedback{
		UserID:            session.UserID,
		SessionID:         session.ID,
		OverallScore:      overall,
		IndustryAverage:   industry,
		PointsEarned:      points,
		Results:           datatypes.JSON(resultsJSON),
		RelevantSkills:    datatypes.JSON(weakJSON),
		RecommendedTools:  datatypes.JSON(toolsJSON),
		QuestionsAnalysis: datatypes.JSON(analysisJSON),
		GoodAnswers:       good,
		BadAnswers:        bad,
	}, nil
}

// replayResponse 幂等路径：用既有反馈还原响应
func replayResponse(session *model.UserSession, fb *model.AssessmentFeedback) (*EvaluationResponse, error) {
	var results []model.CategoryResult
	var weak []model.RelevantSkill
	var tools []model.RecommendedTool
	var analysis []model.QuestionAnalysis

	if len(fb.Results) > 0 {
		if err := json.Unmarshal(fb.Results, &results); err != nil {
			return nil, err
		}
	}
	if len(fb.RelevantSkills) > 0 {
		if err := json.Unmarshal(fb.RelevantSkills, &weak); err != nil {
			return nil, err
		}
	}
	if len(fb.RecommendedTools) > 0 {
		if err := json.Unmarshal(fb.RecommendedTools, &tools); err != nil {
			return nil, err
		}
	}
	if len(fb.QuestionsAnalysis) > 0 {
		if err := json.Unmarshal(fb.QuestionsAnalysis, &analysis); err != nil {
			return nil, err
		}
	}

	answers, _ := decodeAnswers(session)

	return &EvaluationResponse{
		FeedbackID:        fb.ID,
		SessionID:         session.ID,
		UserID:            fb.UserID,
		SkillID:           session.SkillID,
		OverallScore:      fb.OverallScore,
		IndustryAverage:   fb.IndustryAverage,
		Points:            fb.PointsEarned,
		Results:           results,
		RelevantSkills:    weak,
		RecommendedTools:  tools,
		QuestionsAnalysis: analysis,
		GoodAnswers:       fb.GoodAnswers,
		BadAnswers:        fb.BadAnswers,
		TotalQuestions:    session.TotalQuestions,
		TotalAnswered:     len(answers),
		AlreadyEvaluated:  true,
	}, nil
}

type FeedbackDetailResponse struct {
	Feedback  *model.AssessmentFeedback `json:"feedback"`
	SkillName string                    `json:"skillName"`
}

// GetFeedbackByID 反馈详情，附带技能名
func (s *ScoringService) GetFeedbackByID(ctx context.Context, feedbackID string) (*FeedbackDetailResponse, error) {
	fb, err := s.Feedbacks.FindByID(feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFeedbackNotFound
		}
		return nil, err
	}

	skillName := "Unknown Skill"
	if session, err := s.Sessions.FindByID(fb.SessionID); err == nil {
		if skill, err := s.Skills.FindByID(session.SkillID); err == nil {
			skillName = skill.Name
		}
	}

	return &FeedbackDetailResponse{
		Feedback:  fb,
		SkillName: skillName,
	}, nil
}

type FeedbackListItem struct {
	SessionID  string `json:"sessionId"`
	UserID     string `json:"userId"`
	FinishedAt string `json:"finishedAt"`
	SkillName  string `json:"skillName"`
	FeedbackID string `json:"feedbackId"`
}

type FeedbackListResponse struct {
	Feedbacks   []FeedbackListItem `json:"feedbacks"`
	TotalCount  int64              `json:"totalCount"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
	Limit       int                `json:"limit"`
}

// ListFeedbacksByUser 按用户分页列出已评分会话的反馈摘要
func (s *ScoringService) ListFeedbacksByUser(ctx context.Context, userID string, page, limit int) (*FeedbackListResponse, error) {
	sessions, total, err := s.Sessions.ListFinishedByUser(userID, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]FeedbackListItem, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		fb, err := s.Feedbacks.FindBySessionID(ctx, session.ID)
		if err != nil {
			continue // 会话已完成但尚未评分
		}

		skillName := "Unknown Skill"
		if skill, err := s.Skills.FindByID(session.SkillID); err == nil {
			skillName = skill.Name
		}

		items = append(items, FeedbackListItem{
			SessionID:  session.ID,
			UserID:     session.UserID,
			FinishedAt: util.FriendlyDate(session.FinishedAt),
			SkillName:  skillName,
			FeedbackID: fb.ID,
		})
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &FeedbackListResponse{
		Feedbacks:   items,
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Limit:       limit,
	}, nil
}
