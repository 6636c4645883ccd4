package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/burnlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileNotFound 在指定资料不存在时返回
var ErrProfileNotFound = errors.New("profile not found")

// ProfileInput 定义创建/更新资料时可配置字段
type ProfileInput struct {
	UserID        string
	Nickname      string
	CurrentWeight float64
	GoalWeight    float64
}

// ProfileService 提供用户资料的读取与维护能力
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{db: gdb}
}

// Get 根据用户 ID 获取资料
func (s *ProfileService) Get(userID string) (*db.Profile, error) {
	var profile db.Profile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// List 返回全部用户资料，按创建时间升序
func (s *ProfileService) List() ([]db.Profile, error) {
	var profiles []db.Profile
	if err := s.db.Order("created_at ASC, id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Upsert 创建或更新用户资料，以 user_id 为冲突键
func (s *ProfileService) Upsert(input ProfileInput) (*db.Profile, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	profile := db.Profile{
		UserID:        input.UserID,
		Nickname:      strings.TrimSpace(input.Nickname),
		CurrentWeight: input.CurrentWeight,
		GoalWeight:    input.GoalWeight,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "current_weight", "goal_weight", "updated_at"}),
	}).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	if err := s.db.Where("user_id = ?", input.UserID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}

	return &profile, nil
}

// IsComplete 判断资料是否完整：有昵称且填写了当前体重与目标体重
func IsComplete(profile *db.Profile) bool {
	if profile == nil {
		return false
	}
	return strings.TrimSpace(profile.Nickname) != "" &&
		profile.CurrentWeight > 0 &&
		profile.GoalWeight > 0
}
