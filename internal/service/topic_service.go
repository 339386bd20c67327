package service

import (
	"errors"

	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/util"

	"gorm.io/gorm"
)

type TopicService struct {
	Repo *repository.TopicRepository
}

func NewTopicService(repo *repository.TopicRepository) *TopicService {
	return &TopicService{Repo: repo}
}

func (s *TopicService) CreateChapter(name string) (*model.Chapter, error) {
	chapter := &model.Chapter{Name: name}
	if err := s.Repo.CreateChapter(chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *TopicService) ListChapters() ([]model.Chapter, error) {
	return s.Repo.ListChapters()
}

func (s *TopicService) GetChapter(id string) (*model.Chapter, error) {
	chapter, err := s.Repo.FindChapter(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChapterNotFound
	}
	return chapter, err
}

func (s *TopicService) RenameChapter(id, name string) (*model.Chapter, error) {
	chapter, err := s.GetChapter(id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RenameChapter(id, name); err != nil {
		return nil, err
	}
	chapter.Name = name
	return chapter, nil
}

// DeleteChapter 章节下仍有主题时拒绝删除
func (s *TopicService) DeleteChapter(id string) error {
	if _, err := s.GetChapter(id); err != nil {
		return err
	}
	n, err := s.Repo.CountTopicsByChapter(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return util.ErrChapterNotEmpty
	}
	return s.Repo.DeleteChapter(id)
}

func (s *TopicService) CreateTopic(chapterID, name string) (*model.Topic, error) {
	if _, err := s.GetChapter(chapterID); err != nil {
		return nil, err
	}
	topic := &model.Topic{ChapterID: chapterID, Name: name}
	if err := s.Repo.CreateTopic(topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *TopicService) ListTopics(chapterID string) ([]model.Topic, error) {
	return s.Repo.ListTopics(chapterID)
}

func (s *TopicService) GetTopic(id string) (*model.Topic, error) {
	topic, err := s.Repo.FindTopic(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTopicNotFound
	}
	return topic, err
}

// DeleteTopic 主题下仍有题目时拒绝删除
func (s *TopicService) DeleteTopic(id string) error {
	if _, err := s.GetTopic(id); err != nil {
		return err
	}
	n, err := s.Repo.CountQuestionsByTopic(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return util.ErrTopicNotEmpty
	}
	return s.Repo.DeleteTopic(id)
}
