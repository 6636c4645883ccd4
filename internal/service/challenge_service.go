package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/burnlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrChallengeNotFound 在指定挑战不存在时返回
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrChallengeInvalid 当挑战配置缺少必填字段时返回
	ErrChallengeInvalid = errors.New("invalid challenge configuration")
)

// defaultDailyChallengeCount 为挑战目录不可用时的满勤判定兜底值
const defaultDailyChallengeCount = 7

// ChallengeInput 定义创建/更新挑战时可配置字段
type ChallengeInput struct {
	Name        string
	Description string
	Icon        string
	Sort        int
	Enabled     bool
}

// CompletionFilter 指定已完成记录的查询区间
// ChallengeIDs 为空时返回全部挑战的记录
type CompletionFilter struct {
	UserID       string
	Start        time.Time
	End          time.Time
	ChallengeIDs []uint
}

// ChallengeService 负责挑战目录维护与每日打卡
// 打卡以 user_id + challenge_id + date 为唯一键，重复打卡幂等
type ChallengeService struct {
	db *gorm.DB
}

// NewChallengeService 构造 ChallengeService
func NewChallengeService(gdb *gorm.DB) *ChallengeService {
	return &ChallengeService{db: gdb}
}

// List 返回挑战目录，onlyEnabled 为 true 时过滤停用项
func (s *ChallengeService) List(onlyEnabled bool) ([]db.Challenge, error) {
	var challenges []db.Challenge

	query := s.db.Model(&db.Challenge{})
	if onlyEnabled {
		query = query.Where("enabled = ?", true)
	}

	if err := query.Order("sort ASC, id ASC").Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}

// EnabledCount 返回启用中的挑战数量，作为满勤判定的目标值
func (s *ChallengeService) EnabledCount() (int, error) {
	var count int64
	if err := s.db.Model(&db.Challenge{}).Where("enabled = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count enabled challenges: %w", err)
	}
	return int(count), nil
}

// Get 根据 ID 获取挑战
func (s *ChallengeService) Get(id uint) (*db.Challenge, error) {
	var challenge db.Challenge
	if err := s.db.First(&challenge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return &challenge, nil
}

// Create 新建挑战
func (s *ChallengeService) Create(input ChallengeInput) (*db.Challenge, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrChallengeInvalid)
	}

	challenge := db.Challenge{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Icon:        strings.TrimSpace(input.Icon),
		Sort:        input.Sort,
		Enabled:     input.Enabled,
	}

	if err := s.db.Create(&challenge).Error; err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return &challenge, nil
}

// Update 更新挑战
func (s *ChallengeService) Update(id uint, input ChallengeInput) (*db.Challenge, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrChallengeInvalid)
	}

	var existing db.Challenge
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("find challenge: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Icon = strings.TrimSpace(input.Icon)
	existing.Sort = input.Sort
	existing.Enabled = input.Enabled

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	return &existing, nil
}

// Delete 删除挑战
func (s *ChallengeService) Delete(id uint) error {
	if err := s.db.Delete(&db.Challenge{}, id).Error; err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// Toggle 处理幂等打卡逻辑：completed 为 true 时 upsert，为 false 时删除记录
func (s *ChallengeService) Toggle(userID string, challengeID uint, date time.Time, completed bool) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	day := normalizeToDate(date)

	if !completed {
		if err := s.db.Where("user_id = ? AND challenge_id = ? AND date = ?", userID, challengeID, day).
			Delete(&db.DailyChallenge{}).Error; err != nil {
			return fmt.Errorf("untoggle challenge: %w", err)
		}
		return nil
	}

	record := db.DailyChallenge{
		UserID:      userID,
		ChallengeID: challengeID,
		Date:        day,
		IsCompleted: true,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_completed", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("toggle challenge: %w", err)
	}

	return nil
}

// CompletedIDs 返回用户在指定日期已完成的挑战 ID 集合
func (s *ChallengeService) CompletedIDs(userID string, date time.Time) (map[uint]bool, error) {
	day := normalizeToDate(date)

	var records []db.DailyChallenge
	if err := s.db.Where("user_id = ? AND date = ? AND is_completed = ?", userID, day, true).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completed ids: %w", err)
	}

	ids := make(map[uint]bool, len(records))
	for _, record := range records {
		ids[record.ChallengeID] = true
	}
	return ids, nil
}

// CompletedInRange 返回区间内全部已完成记录，按日期升序
func (s *ChallengeService) CompletedInRange(filter CompletionFilter) ([]db.DailyChallenge, error) {
	if filter.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	start := normalizeToDate(filter.Start)
	end := normalizeToDate(filter.End)

	query := s.db.Where("user_id = ? AND is_completed = ?", filter.UserID, true).
		Where("date BETWEEN ? AND ?", start, end)
	if len(filter.ChallengeIDs) > 0 {
		query = query.Where("challenge_id IN ?", filter.ChallengeIDs)
	}

	var records []db.DailyChallenge
	if err := query.Order("date ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return records, nil
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
