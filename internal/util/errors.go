package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrInvalidScope       = errors.New("exactly one of topic_id or chapter_id is required")
	ErrInvalidQuizParams  = errors.New("question counts out of range")
	ErrScopeNotFound      = errors.New("topic or chapter not found")
	ErrNotEnoughQuestions = errors.New("not enough questions")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAnswerNotFound     = errors.New("answer not found")
	ErrChapterNotFound    = errors.New("chapter not found")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrChapterNotEmpty    = errors.New("chapter still has topics")
	ErrTopicNotEmpty      = errors.New("topic still has questions")
	ErrPictureNotFound    = errors.New("picture not found")
	ErrReportNotFound     = errors.New("file not found")
	ErrReportFontRequired = errors.New("report font required")
	ErrScorerUnavailable  = errors.New("external scorer unavailable")
)
