package model

import "gorm.io/datatypes"

// QuizAttempt 一次测验提交的评分结果
type QuizAttempt struct {
	UUIDBase
	UserID         string         `gorm:"index;type:varchar(36)" json:"userId"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	ScorePercent   float64        `json:"scorePercent"`
	Details        datatypes.JSON `json:"details"`
	Recommendation string         `gorm:"type:text" json:"recommendation"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
