package repository

import (
	"quiz_bank_backend/internal/model"

	"gorm.io/gorm"
)

type TopicRepository struct {
	DB *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{DB: db}
}

func (r *TopicRepository) CreateChapter(chapter *model.Chapter) error {
	return r.DB.Create(chapter).Error
}

func (r *TopicRepository) ListChapters() ([]model.Chapter, error) {
	var chapters []model.Chapter
	err := r.DB.Order("name asc").Find(&chapters).Error
	return chapters, err
}

func (r *TopicRepository) FindChapter(id string) (*model.Chapter, error) {
	var chapter model.Chapter
	if err := r.DB.Where("id = ?", id).First(&chapter).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *TopicRepository) RenameChapter(id, name string) error {
	return r.DB.Model(&model.Chapter{}).Where("id = ?", id).Update("name", name).Error
}

func (r *TopicRepository) DeleteChapter(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Chapter{}).Error
}

func (r *TopicRepository) CreateTopic(topic *model.Topic) error {
	return r.DB.Create(topic).Error
}

func (r *TopicRepository) ListTopics(chapterID string) ([]model.Topic, error) {
	var topics []model.Topic
	query := r.DB.Model(&model.Topic{})
	if chapterID != "" {
		query = query.Where("chapter_id = ?", chapterID)
	}
	err := query.Order("name asc").Find(&topics).Error
	return topics, err
}

func (r *TopicRepository) FindTopic(id string) (*model.Topic, error) {
	var topic model.Topic
	if err := r.DB.Where("id = ?", id).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *TopicRepository) DeleteTopic(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Topic{}).Error
}

func (r *TopicRepository) CountTopicsByChapter(chapterID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Topic{}).Where("chapter_id = ?", chapterID).Count(&count).Error
	return count, err
}

// CountQuestionsByTopic 统计主题下的选择题与开放题总数
func (r *TopicRepository) CountQuestionsByTopic(topicID string) (int64, error) {
	var fixed, open int64
	if err := r.DB.Model(&model.Question{}).Where("topic_id = ?", topicID).Count(&fixed).Error; err != nil {
		return 0, err
	}
	if err := r.DB.Model(&model.AIQuestion{}).Where("topic_id = ?", topicID).Count(&open).Error; err != nil {
		return 0, err
	}
	return fixed + open, nil
}
