package model

// Chapter 按领域划分：IT、市场、设计等
// swagger:model Chapter
type Chapter struct {
	UUIDBase
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// Topic 领域内的具体主题
// swagger:model Topic
type Topic struct {
	UUIDBase
	ChapterID string   `gorm:"index;type:varchar(36);not null" json:"chapterId"`
	Chapter   *Chapter `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`
	Name      string   `gorm:"size:255;not null" json:"name"`
}

func (Topic) TableName() string {
	return "topics"
}
