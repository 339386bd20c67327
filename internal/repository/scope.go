package repository

import "gorm.io/gorm"

// Scope 组卷范围，TopicID 与 ChapterID 二选一
type Scope struct {
	TopicID   string
	ChapterID string
}

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	if s.TopicID != "" {
		return db.Where("topic_id = ?", s.TopicID)
	}
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table("topics").
		Select("id").
		Where("chapter_id = ? AND deleted_at IS NULL", s.ChapterID)
	return db.Where("topic_id IN (?)", sub)
}

// randomOrder 返回当前方言的随机排序函数
func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}
