package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"skill_assessment_backend/internal/config"
	"skill_assessment_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuizJSON(n int) string {
	quiz := GeneratedQuiz{}
	for i := 1; i <= n; i++ {
		quiz.Questions = append(quiz.Questions, GeneratedQuestion{
			ID:            i,
			Subcategory:   "Syntax",
			Type:          "multiple",
			Question:      fmt.Sprintf("question %d", i),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		})
	}
	raw, _ := json.Marshal(quiz)
	return string(raw)
}

func completionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func newTestGenerator(baseURL string, maxRetries int) *QuizGenerator {
	g := NewQuizGenerator(config.AIConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Model:         "test-model",
		MaxRetries:    maxRetries,
		Timeout:       5 * time.Second,
		QuestionCount: 3,
	})
	g.sleep = func(time.Duration) {} // 测试不真正等待退避
	return g
}

func TestGenerateQuizSuccess(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		fmt.Fprint(w, completionBody(validQuizJSON(3)))
	}))
	defer server.Close()

	g := newTestGenerator(server.URL, 2)
	quiz, raw, err := g.GenerateQuiz(context.Background(), "JavaScript")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, 1, quiz.Questions[0].ID)
	assert.NotEmpty(t, raw)
}

func TestGenerateQuizStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fenced := "```json\n" + validQuizJSON(2) + "\n```"
		fmt.Fprint(w, completionBody(fenced))
	}))
	defer server.Close()

	g := newTestGenerator(server.URL, 0)
	quiz, _, err := g.GenerateQuiz(context.Background(), "SQL")
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 2)
}

func TestGenerateQuizRetriesOnOverload(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"The model is overloaded"}}`)
			return
		}
		fmt.Fprint(w, completionBody(validQuizJSON(1)))
	}))
	defer server.Close()

	g := newTestGenerator(server.URL, 5)
	quiz, _, err := g.GenerateQuiz(context.Background(), "JavaScript")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, quiz.Questions, 1)
}

func TestGenerateQuizExhaustsRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := newTestGenerator(server.URL, 2)
	_, _, err := g.GenerateQuiz(context.Background(), "JavaScript")
	assert.ErrorIs(t, err, util.ErrQuizProviderUnavailable)
	assert.Equal(t, 3, calls) // 首次 + 2次重试
}

func TestGenerateQuizDoesNotRetryMalformedPayload(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, completionBody("this is not JSON at all"))
	}))
	defer server.Close()

	g := newTestGenerator(server.URL, 5)
	_, raw, err := g.GenerateQuiz(context.Background(), "JavaScript")
	assert.ErrorIs(t, err, util.ErrQuizProviderUnavailable)
	assert.Equal(t, 1, calls)
	// 损坏载荷仍然返回原文，调用方可归档排查
	assert.NotEmpty(t, raw)
}

func TestGenerateQuizDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad api key"}}`)
	}))
	defer server.Close()

	g := newTestGenerator(server.URL, 5)
	_, _, err := g.GenerateQuiz(context.Background(), "JavaScript")
	assert.ErrorIs(t, err, util.ErrQuizProviderUnavailable)
	assert.Equal(t, 1, calls)
}

func TestValidateQuiz(t *testing.T) {
	base := func() *GeneratedQuiz {
		var quiz GeneratedQuiz
		require.NoError(t, json.Unmarshal([]byte(validQuizJSON(2)), &quiz))
		return &quiz
	}

	cases := []struct {
		name    string
		mutate  func(q *GeneratedQuiz)
		wantErr bool
	}{
		{"valid", func(q *GeneratedQuiz) {}, false},
		{"empty quiz", func(q *GeneratedQuiz) { q.Questions = nil }, true},
		{"non-sequential ids", func(q *GeneratedQuiz) { q.Questions[1].ID = 5 }, true},
		{"empty question text", func(q *GeneratedQuiz) { q.Questions[0].Question = "  " }, true},
		{"empty subcategory", func(q *GeneratedQuiz) { q.Questions[0].Subcategory = "" }, true},
		{"too few options", func(q *GeneratedQuiz) { q.Questions[0].Options = []string{"A"} }, true},
		{"duplicate options", func(q *GeneratedQuiz) { q.Questions[0].Options = []string{"A", "A", "B"} }, true},
		{"empty option", func(q *GeneratedQuiz) { q.Questions[0].Options = []string{"A", " ", "B"} }, true},
		{"correct answer missing", func(q *GeneratedQuiz) { q.Questions[0].CorrectAnswer = "Z" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quiz := base()
			tc.mutate(quiz)
			err := validateQuiz(quiz)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuizPromptMentionsSkillAndCount(t *testing.T) {
	prompt := quizPrompt("UX/UI Design", 15)
	assert.Contains(t, prompt, "UX/UI Design")
	assert.Contains(t, prompt, "Generate 15 questions")
	assert.Contains(t, prompt, "multiple choice")
}
