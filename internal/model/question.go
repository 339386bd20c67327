package model

// 固定答案题型
const (
	QuestionSingleChoice = 0 // 只有一个正确答案
	QuestionMultiChoice  = 1 // 多个正确答案
)

// Question 选择题，答案随题目级联删除
// swagger:model Question
type Question struct {
	UUIDBase
	AuthorID    string   `gorm:"index;type:varchar(36)" json:"authorId"`
	Description string   `gorm:"type:text" json:"description"`
	Type        int      `gorm:"default:0" json:"type"`
	Explanation string   `gorm:"type:text" json:"explanation"`
	TopicID     string   `gorm:"index;type:varchar(36)" json:"topicId"`
	Picture     string   `gorm:"size:512" json:"picture,omitempty"`
	Answers     []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Answer
type Answer struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Text       string `gorm:"type:text" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (Answer) TableName() string {
	return "answers"
}

// AIQuestion 开放题，Explanation 作为评分参考答案
// swagger:model AIQuestion
type AIQuestion struct {
	UUIDBase
	AuthorID    string `gorm:"index;type:varchar(36)" json:"authorId"`
	Description string `gorm:"type:text" json:"description"`
	Explanation string `gorm:"type:text" json:"explanation"`
	TopicID     string `gorm:"index;type:varchar(36)" json:"topicId"`
	Picture     string `gorm:"size:512" json:"picture,omitempty"`
}

func (AIQuestion) TableName() string {
	return "ai_questions"
}
