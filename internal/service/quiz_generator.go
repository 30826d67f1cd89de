package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"skill_assessment_backend/internal/config"
	"skill_assessment_backend/internal/util"
	"skill_assessment_backend/pkg/logger"
	"skill_assessment_backend/pkg/monitoring"
	"strings"
	"time"

	"go.uber.org/zap"
)

type GeneratedQuestion struct {
	ID               int      `json:"id"`
	Subcategory      string   `json:"subcategory"`
	Type             string   `json:"type"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	CorrectAnswer    string   `json:"correct_answer"`
	RecommendedTools []string `json:"recommended_tools"`
}

type GeneratedQuiz struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []aiChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// QuizSource 题目生成器协作接口
type QuizSource interface {
	GenerateQuiz(ctx context.Context, skillName string) (*GeneratedQuiz, []byte, error)
}

// QuizGenerator 调用 OpenAI 兼容接口生成整套单选题，
// 对 429/5xx/过载类错误做指数退避重试（带抖动），其余错误直接返回。
type QuizGenerator struct {
	config config.AIConfig
	client *http.Client
	sleep  func(time.Duration)
}

func NewQuizGenerator(cfg config.AIConfig) *QuizGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &QuizGenerator{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		sleep:  time.Sleep,
	}
}

func quizPrompt(skill string, count int) string {
	return fmt.Sprintf(`Generate %d questions to assess general knowledge of the skill: %s.

Each question must include a "subcategory" related to the core topics within %s. For example, if the skill is "UX/UI Design", subcategories may include:
- Understanding UX Principles
- User Research
- Wireframing and Prototyping
- UI Design Patterns
- Usability Testing
- Accessibility
- Design Systems
(You may define appropriate subcategories for other skills.)

All questions must be multiple choice. Do not use other types such as true/false, open, or analysis.

Return a JSON object in the following structure:

{
  "questions": [
    {
      "id": number,
      "subcategory": "Subcategory name",
      "type": "multiple",
      "question": "Text",
      "options": ["A", "B", "C", "D"],
      "correct_answer": "Correct option letter or text",
      "recommended_tools": ["Tool1", "Tool2"]
    }
  ]
}

Only return a valid JSON. Do not include any explanation or text outside the JSON.`, count, skill, skill)
}

// GenerateQuiz 返回解析后的题目和提供方的原始载荷（用于归档）
func (g *QuizGenerator) GenerateQuiz(ctx context.Context, skillName string) (*GeneratedQuiz, []byte, error) {
	maxRetries := g.config.MaxRetries
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			monitoring.QuizGenerationRetries.Inc()
			// Exponential backoff: 2^attempt + random jitter
			wait := time.Duration(1<<uint(attempt))*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
			logger.Log.Warn("quiz provider busy, retrying",
				zap.String("skill", skillName),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
			g.sleep(wait)
		}

		raw, err := g.requestCompletion(ctx, skillName)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			monitoring.QuizGenerationFailures.Inc()
			return nil, nil, fmt.Errorf("%w: %v", util.ErrQuizProviderUnavailable, err)
		}

		quiz, err := parseQuizPayload(raw)
		if err != nil {
			// 载荷损坏不重试：提供方可达，重发同一提示词大概率同样损坏
			logger.Log.Error("quiz payload rejected", zap.String("skill", skillName), zap.Error(err))
			monitoring.QuizGenerationFailures.Inc()
			return nil, raw, fmt.Errorf("%w: %v", util.ErrQuizProviderUnavailable, err)
		}

		return quiz, raw, nil
	}

	monitoring.QuizGenerationFailures.Inc()
	return nil, nil, fmt.Errorf("%w: %v", util.ErrQuizProviderUnavailable, lastErr)
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("quiz provider returned status %d: %s", e.status, e.body)
}

func isRetryable(err error) bool {
	if se, ok := err.(*httpStatusError); ok {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") || strings.Contains(msg, "unavailable") || strings.Contains(msg, "timeout")
}

func (g *QuizGenerator) requestCompletion(ctx context.Context, skillName string) ([]byte, error) {
	reqBody := chatCompletionRequest{
		Model: g.config.Model,
		Messages: []aiChatMessage{
			{Role: "user", Content: quizPrompt(skillName, g.config.QuestionCount)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, body: string(body)}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("malformed completion response: %v", err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("quiz provider error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return []byte(completion.Choices[0].Message.Content), nil
}

// parseQuizPayload 剥掉 ``` 围栏后解析并校验整套题目
func parseQuizPayload(raw []byte) (*GeneratedQuiz, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var quiz GeneratedQuiz
	if err := json.Unmarshal([]byte(text), &quiz); err != nil {
		return nil, fmt.Errorf("invalid quiz JSON: %v", err)
	}

	if err := validateQuiz(&quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func validateQuiz(quiz *GeneratedQuiz) error {
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("quiz contains no questions")
	}

	for i, q := range quiz.Questions {
		if q.ID != i+1 {
			return fmt.Errorf("question ids must be sequential from 1, got %d at position %d", q.ID, i)
		}
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %d has empty text", q.ID)
		}
		if strings.TrimSpace(q.Subcategory) == "" {
			return fmt.Errorf("question %d has empty subcategory", q.ID)
		}
		if len(q.Options) < 2 || len(q.Options) > 6 {
			return fmt.Errorf("question %d must have 2-6 options, got %d", q.ID, len(q.Options))
		}
		seen := make(map[string]bool, len(q.Options))
		correctFound := false
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("question %d has an empty option", q.ID)
			}
			if seen[opt] {
				return fmt.Errorf("question %d has duplicate option %q", q.ID, opt)
			}
			seen[opt] = true
			if opt == q.CorrectAnswer {
				correctFound = true
			}
		}
		if !correctFound {
			return fmt.Errorf("question %d correct answer is not among its options", q.ID)
		}
	}
	return nil
}
