package util

import (
	"strings"
	"time"
)

const MaxAnswerLength = 2000

// ValidateAnswer 校验用户作答文本。只做长度与空白校验，
// 不做任何大小写或空格归一化：判分是严格的字符串相等。
func ValidateAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return ErrEmptyAnswer
	}
	if len(answer) > MaxAnswerLength {
		return ErrAnswerTooLong
	}
	return nil
}

// FriendlyDate 列表接口展示用的日期格式，如 "Monday, January 5, 2026"
func FriendlyDate(t *time.Time) string {
	if t == nil {
		return "Unknown Date"
	}
	return t.Format("Monday, January 2, 2006")
}
