package service

import (
	"context"
	"errors"
	"skill_assessment_backend/internal/model"
	"skill_assessment_backend/internal/util"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssessmentFixture(t *testing.T, questions []model.Question, generator QuizSource) (*AssessmentService, *fakeSessionStore, *fakeQuestionStore) {
	t.Helper()
	skills := newFakeSkillStore(&model.Skill{BaseModel: model.BaseModel{ID: 1}, Name: "JavaScript"})
	questionStore := &fakeQuestionStore{questions: questions}
	sessions := newFakeSessionStore()
	if generator == nil {
		generator = &fakeQuizSource{}
	}
	svc := NewAssessmentService(skills, questionStore, sessions, generator, &fakeArchiver{})
	return svc, sessions, questionStore
}

func openSession(t *testing.T, sessions *fakeSessionStore, id, userID string, total int, answers []model.SessionAnswer) {
	t.Helper()
	session := &model.UserSession{
		UserID:         userID,
		SkillID:        1,
		TotalQuestions: total,
		AnsweredCount:  len(answers),
		Status:         model.SessionInProgress,
	}
	session.ID = id
	require.NoError(t, encodeAnswers(session, answers))
	require.NoError(t, sessions.Create(session))
}

func seededQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = seedQuestion(1, i+1, "Syntax", "A", nil)
	}
	return questions
}

func TestStartAssessmentWithExistingQuestions(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)

	resp, err := svc.StartAssessment(context.Background(), 1, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 3, resp.Session.TotalQuestions)
	assert.Equal(t, 0, resp.Session.AnsweredCount)
	assert.Equal(t, model.SessionInProgress, resp.Session.Status)
	assert.False(t, resp.Session.IsFinished)

	stored, err := sessions.FindByID(resp.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
}

func TestStartAssessmentGeneratesQuestionsWhenEmpty(t *testing.T) {
	generator := &fakeQuizSource{
		quiz: &GeneratedQuiz{Questions: []GeneratedQuestion{
			{ID: 1, Subcategory: "Syntax", Question: "q1", Options: []string{"A", "B"}, CorrectAnswer: "A", RecommendedTools: []string{"ESLint"}},
			{ID: 2, Subcategory: "Scope", Question: "q2", Options: []string{"A", "B"}, CorrectAnswer: "B"},
		}},
		raw: []byte(`{"questions":[]}`),
	}
	svc, _, questionStore := newAssessmentFixture(t, nil, generator)

	resp, err := svc.StartAssessment(context.Background(), 1, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.Session.TotalQuestions)
	require.Len(t, questionStore.questions, 2)
	// 推荐工具只挂第1题
	assert.NotEmpty(t, questionStore.questions[0].RecommendedTools)
	assert.Empty(t, questionStore.questions[1].RecommendedTools)
}

func TestStartAssessmentFallsBackToPendingOnGeneratorFailure(t *testing.T) {
	generator := &fakeQuizSource{err: util.ErrQuizProviderUnavailable}
	svc, _, _ := newAssessmentFixture(t, nil, generator)

	resp, err := svc.StartAssessment(context.Background(), 1, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, model.SessionPendingQuestions, resp.Session.Status)
	assert.Equal(t, 0, resp.Session.TotalQuestions)
	assert.Equal(t, 300, resp.RetryAfter)
	assert.NotEmpty(t, resp.Message)
}

func TestStartAssessmentUnknownSkill(t *testing.T) {
	svc, _, _ := newAssessmentFixture(t, nil, nil)

	_, err := svc.StartAssessment(context.Background(), 42, "user-1")
	assert.ErrorIs(t, err, util.ErrSkillNotFound)
}

func TestAnswerQuestionRecordsAnswer(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)
	openSession(t, sessions, "s1", "user-1", 3, nil)

	resp, err := svc.AnswerQuestion(AnswerQuestionRequest{
		SessionID: "s1", UserID: "user-1", Number: 1, Answer: "A",
	})
	require.NoError(t, err)

	assert.Equal(t, "Answer recorded successfully", resp.Message)
	assert.Equal(t, 2, resp.NextQuestion)
	assert.False(t, resp.IsFinished)

	stored, err := sessions.FindByID("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AnsweredCount)
}

func TestAnswerQuestionLastAnswerFinishesSession(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(2), nil)
	openSession(t, sessions, "s1", "user-1", 2, []model.SessionAnswer{
		{QuestionNumber: 1, Answer: "A"},
	})

	resp, err := svc.AnswerQuestion(AnswerQuestionRequest{
		SessionID: "s1", UserID: "user-1", Number: 2, Answer: "B",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsFinished)

	stored, err := sessions.FindByID("s1")
	require.NoError(t, err)
	assert.True(t, stored.IsFinished)
	assert.Equal(t, model.SessionCompleted, stored.Status)
	require.NotNil(t, stored.FinishedAt)
}

func TestAnswerQuestionGuards(t *testing.T) {
	cases := []struct {
		name    string
		req     AnswerQuestionRequest
		prepare func(t *testing.T, sessions *fakeSessionStore)
		wantErr error
	}{
		{
			name:    "session not found",
			req:     AnswerQuestionRequest{SessionID: "missing", UserID: "user-1", Number: 1, Answer: "A"},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {},
			wantErr: util.ErrSessionNotFound,
		},
		{
			name: "finished session rejected",
			req:  AnswerQuestionRequest{SessionID: "s1", UserID: "user-1", Number: 1, Answer: "A"},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {
				session := finishedSession(t, "s1", "user-1", 1, []model.SessionAnswer{
					{QuestionNumber: 1, Answer: "A"},
				})
				require.NoError(t, sessions.Create(session))
			},
			wantErr: util.ErrSessionFinished,
		},
		{
			name: "user mismatch rejected",
			req:  AnswerQuestionRequest{SessionID: "s1", UserID: "intruder", Number: 1, Answer: "A"},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {
				openSession(t, sessions, "s1", "user-1", 3, nil)
			},
			wantErr: util.ErrUserMismatch,
		},
		{
			name: "question number zero rejected",
			req:  AnswerQuestionRequest{SessionID: "s1", UserID: "user-1", Number: 0, Answer: "A"},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {
				openSession(t, sessions, "s1", "user-1", 3, nil)
			},
			wantErr: util.ErrQuestionOutOfRange,
		},
		{
			name: "question number above total rejected",
			req:  AnswerQuestionRequest{SessionID: "s1", UserID: "user-1", Number: 4, Answer: "A"},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {
				openSession(t, sessions, "s1", "user-1", 3, nil)
			},
			wantErr: util.ErrQuestionOutOfRange,
		},
		{
			name: "already answered rejected",
			req:  AnswerQuestionRequest{SessionID: "s1", UserID: "user-1", Number: 1, Answer: "B"},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {
				openSession(t, sessions, "s1", "user-1", 3, []model.SessionAnswer{
					{QuestionNumber: 1, Answer: "A"},
				})
			},
			wantErr: util.ErrAlreadyAnswered,
		},
		{
			name:    "empty answer rejected",
			req:     AnswerQuestionRequest{SessionID: "s1", UserID: "user-1", Number: 1, Answer: "   "},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {},
			wantErr: util.ErrEmptyAnswer,
		},
		{
			name:    "oversized answer rejected",
			req:     AnswerQuestionRequest{SessionID: "s1", UserID: "user-1", Number: 1, Answer: strings.Repeat("x", util.MaxAnswerLength+1)},
			prepare: func(t *testing.T, sessions *fakeSessionStore) {},
			wantErr: util.ErrAnswerTooLong,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)
			tc.prepare(t, sessions)

			_, err := svc.AnswerQuestion(tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAnswerQuestionConcurrentUpdateConflict(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)
	openSession(t, sessions, "s1", "user-1", 3, nil)

	// 模拟并发写入：存储里的计数已被另一请求推进
	stored := sessions.sessions["s1"]
	stored.AnsweredCount = 1

	_, err := svc.AnswerQuestion(AnswerQuestionRequest{
		SessionID: "s1", UserID: "user-1", Number: 2, Answer: "A",
	})
	assert.ErrorIs(t, err, util.ErrAnswerConflict)
}

func TestUpdateAnswer(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)
	openSession(t, sessions, "s1", "user-1", 3, []model.SessionAnswer{
		{QuestionNumber: 1, Answer: "A"},
	})

	resp, err := svc.UpdateAnswer(AnswerQuestionRequest{
		SessionID: "s1", UserID: "user-1", Number: 1, Answer: "C",
	})
	require.NoError(t, err)
	assert.Equal(t, "Answer updated successfully", resp.Message)

	stored, err := sessions.FindByID("s1")
	require.NoError(t, err)
	answers, err := decodeAnswers(stored)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "C", answers[0].Answer)
	assert.Equal(t, 1, stored.AnsweredCount)
}

func TestUpdateAnswerRequiresExistingAnswer(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)
	openSession(t, sessions, "s1", "user-1", 3, nil)

	_, err := svc.UpdateAnswer(AnswerQuestionRequest{
		SessionID: "s1", UserID: "user-1", Number: 1, Answer: "C",
	})
	assert.ErrorIs(t, err, util.ErrNotAnswered)
}

func TestGetQuestionView(t *testing.T) {
	svc, sessions, _ := newAssessmentFixture(t, seededQuestions(3), nil)
	openSession(t, sessions, "s1", "user-1", 3, nil)

	first, err := svc.GetQuestion(QuestionViewRequest{SessionID: "s1", UserID: "user-1", Number: 1})
	require.NoError(t, err)
	assert.False(t, first.HasPrevious)
	assert.True(t, first.HasNext)
	require.NotNil(t, first.NextNumber)
	assert.Equal(t, 2, *first.NextNumber)
	assert.Equal(t, []string{"A", "B", "C", "D"}, first.Options)

	last, err := svc.GetQuestion(QuestionViewRequest{SessionID: "s1", UserID: "user-1", Number: 3})
	require.NoError(t, err)
	assert.True(t, last.HasPrevious)
	assert.False(t, last.HasNext)
	assert.Nil(t, last.NextNumber)

	_, err = svc.GetQuestion(QuestionViewRequest{SessionID: "s1", UserID: "user-1", Number: 4})
	assert.ErrorIs(t, err, util.ErrQuestionOutOfRange)
}

func TestGetSessionNotFound(t *testing.T) {
	svc, _, _ := newAssessmentFixture(t, nil, nil)
	_, err := svc.GetSession("missing")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestStartAssessmentCreateBatchError(t *testing.T) {
	generator := &fakeQuizSource{
		quiz: &GeneratedQuiz{Questions: []GeneratedQuestion{
			{ID: 1, Subcategory: "Syntax", Question: "q1", Options: []string{"A", "B"}, CorrectAnswer: "A"},
		}},
		raw: []byte(`{}`),
	}
	svc, _, questionStore := newAssessmentFixture(t, nil, generator)
	questionStore.batchErr = errors.New("db down")

	_, err := svc.StartAssessment(context.Background(), 1, "user-1")
	assert.Error(t, err)
}
