package util

import "errors"

var (
	ErrSkillNotFound    = errors.New("skill not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrFeedbackNotFound = errors.New("feedback not found")

	ErrSessionFinished    = errors.New("session is already finished")
	ErrSessionNotFinished = errors.New("session is not finished")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrNotAnswered        = errors.New("question not answered yet")
	ErrNoQuestions        = errors.New("no questions found for the skill")
	ErrAnswerConflict     = errors.New("concurrent update on session, retry")

	ErrUserMismatch = errors.New("user ID does not match the session user ID")

	ErrQuestionOutOfRange = errors.New("question number out of range")
	ErrEmptyAnswer        = errors.New("answer cannot be empty")
	ErrAnswerTooLong      = errors.New("answer exceeds maximum length")

	ErrQuizProviderUnavailable = errors.New("quiz generation provider unavailable")
)

// IsNotFound 判定 404 类错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSkillNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrFeedbackNotFound)
}

// IsInvalidState 判定会话状态冲突类错误
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrSessionFinished) ||
		errors.Is(err, ErrSessionNotFinished) ||
		errors.Is(err, ErrAlreadyAnswered) ||
		errors.Is(err, ErrNotAnswered) ||
		errors.Is(err, ErrNoQuestions) ||
		errors.Is(err, ErrAnswerConflict)
}

// IsOwnership 判定越权访问他人会话类错误
func IsOwnership(err error) bool {
	return errors.Is(err, ErrUserMismatch)
}

// IsUpstream 判定上游依赖不可用类错误
func IsUpstream(err error) bool {
	return errors.Is(err, ErrQuizProviderUnavailable)
}

// IsValidation 判定请求参数类错误
func IsValidation(err error) bool {
	return errors.Is(err, ErrQuestionOutOfRange) ||
		errors.Is(err, ErrEmptyAnswer) ||
		errors.Is(err, ErrAnswerTooLong)
}
