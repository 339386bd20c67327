package service

import (
	"errors"
	"fmt"

	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 注册用户，自助注册只允许 student 或 teacher
func (s *AuthService) Register(user *model.User) error {
	switch user.Role {
	case "":
		user.Role = model.Student
	case model.Student, model.Teacher:
	default:
		return util.ErrPermissionDenied
	}
	return s.create(user)
}

// CreateAdmin 由命令行创建管理员
func (s *AuthService) CreateAdmin(name, email, password string) (*model.User, error) {
	user := &model.User{Name: name, Email: email, Password: password, Role: model.Admin}
	if err := s.create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) create(user *model.User) error {
	_, err := s.UserRepo.FindByEmail(user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	return s.UserRepo.Create(user)
}

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) GetUser(id string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}
