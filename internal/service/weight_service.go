package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/burnlog/internal/db"
	"gorm.io/gorm"
)

// ErrWeightInvalid 当体重数值非法时返回
var ErrWeightInvalid = errors.New("weight must be positive")

// WeightInput 定义新增称重记录时的输入对象
// RecordedAt 为零值时由数据库填充当前时间
type WeightInput struct {
	UserID     string
	Weight     float64
	PhotoURL   string
	ThumbURL   string
	Notes      string
	RecordedAt time.Time
}

// WeightService 负责称重记录的写入与时间序查询
// 记录写入后不再修改，首条记录的体重即初始体重基线
type WeightService struct {
	db *gorm.DB
}

// NewWeightService 构造 WeightService
func NewWeightService(gdb *gorm.DB) *WeightService {
	return &WeightService{db: gdb}
}

// Add 新增一条称重记录
func (s *WeightService) Add(input WeightInput) (*db.WeightEntry, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if input.Weight <= 0 {
		return nil, ErrWeightInvalid
	}

	entry := db.WeightEntry{
		UserID:   input.UserID,
		Weight:   input.Weight,
		PhotoURL: strings.TrimSpace(input.PhotoURL),
		ThumbURL: strings.TrimSpace(input.ThumbURL),
		Notes:    strings.TrimSpace(input.Notes),
	}
	if !input.RecordedAt.IsZero() {
		entry.CreatedAt = input.RecordedAt
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("create weight entry: %w", err)
	}
	return &entry, nil
}

// ListAsc 返回用户全部称重记录，按时间升序
func (s *WeightService) ListAsc(userID string) ([]db.WeightEntry, error) {
	var entries []db.WeightEntry
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	return entries, nil
}

// ClosestOnOrBefore 返回目标日期当天或之前最近的一条称重记录
// 目标日期按自然日计算，当天任意时刻的记录均可命中；无记录时返回 nil
func (s *WeightService) ClosestOnOrBefore(userID string, target time.Time) (*db.WeightEntry, error) {
	cutoff := normalizeToDate(target).AddDate(0, 0, 1)

	var entry db.WeightEntry
	if err := s.db.Where("user_id = ? AND created_at < ?", userID, cutoff).
		Order("created_at DESC, id DESC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find closest weight entry: %w", err)
	}
	return &entry, nil
}

// HasEntryBetween 判断指定自然日区间（含两端）内是否存在称重记录
func (s *WeightService) HasEntryBetween(userID string, start, end time.Time) (bool, error) {
	from := normalizeToDate(start)
	to := normalizeToDate(end).AddDate(0, 0, 1)

	var count int64
	if err := s.db.Model(&db.WeightEntry{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count weight entries: %w", err)
	}
	return count > 0, nil
}
