package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/burnlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrRuleNotFound 在指定规则不存在时返回
	ErrRuleNotFound = errors.New("rule not found")
	// ErrRuleInvalidType 当规则类型不在合法集合内时返回
	ErrRuleInvalidType = errors.New("invalid rule type")
	// ErrRuleDuplicate 当同类型已存在启用中的规则时返回
	ErrRuleDuplicate = errors.New("active rule of this type already exists")
)

// defaultRulePoints 为规则表缺失对应类型时的兜底分值
var defaultRulePoints = map[db.RuleType]float64{
	db.RuleChallengeCompletion: 10,
	db.RuleDailyPerfectBonus:   10,
	db.RuleWeightLossPerKg:     15,
	db.RuleWeightGainPerKg:     -15,
	db.RuleMissedWeighIn:       -30,
}

// PointTable 是规则类型到分值的查找表
type PointTable map[db.RuleType]float64

// Points 返回指定类型的分值，缺失时回退到默认值
func (t PointTable) Points(ruleType db.RuleType) float64 {
	if points, ok := t[ruleType]; ok {
		return points
	}
	return defaultRulePoints[ruleType]
}

// RuleInput 定义创建/更新规则时可配置字段
type RuleInput struct {
	RuleType    db.RuleType
	Points      float64
	Description string
	Details     string
	IsActive    bool
}

// RuleService 提供计分规则的读取与后台维护能力
// 启用中的规则按 id 升序加载，同类型重复时先入库者生效；
// 后台保存路径会直接拒绝激活第二条同类型规则
type RuleService struct {
	db *gorm.DB
}

// NewRuleService 构造 RuleService
func NewRuleService(gdb *gorm.DB) *RuleService {
	return &RuleService{db: gdb}
}

// ActiveRules 返回全部启用中的规则，按 id 升序
func (s *RuleService) ActiveRules() ([]db.ChallengeRule, error) {
	var rules []db.ChallengeRule
	if err := s.db.Where("is_active = ?", true).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return rules, nil
}

// List 返回全部规则供后台管理，按类型与 id 排序
func (s *RuleService) List() ([]db.ChallengeRule, error) {
	var rules []db.ChallengeRule
	if err := s.db.Order("rule_type ASC, id ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// Get 根据 ID 获取规则
func (s *RuleService) Get(id uint) (*db.ChallengeRule, error) {
	var rule db.ChallengeRule
	if err := s.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return &rule, nil
}

// Create 新建规则；启用状态下同类型只允许一条
func (s *RuleService) Create(input RuleInput) (*db.ChallengeRule, error) {
	if !input.RuleType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrRuleInvalidType, input.RuleType)
	}

	if input.IsActive {
		if err := s.ensureNoActiveDuplicate(input.RuleType, 0); err != nil {
			return nil, err
		}
	}

	rule := db.ChallengeRule{
		RuleType:    input.RuleType,
		Points:      input.Points,
		Description: strings.TrimSpace(input.Description),
		Details:     input.Details,
		IsActive:    input.IsActive,
	}

	if err := s.db.Create(&rule).Error; err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return &rule, nil
}

// Update 更新规则；启用状态下同类型只允许一条
func (s *RuleService) Update(id uint, input RuleInput) (*db.ChallengeRule, error) {
	if !input.RuleType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrRuleInvalidType, input.RuleType)
	}

	var existing db.ChallengeRule
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}

	if input.IsActive {
		if err := s.ensureNoActiveDuplicate(input.RuleType, id); err != nil {
			return nil, err
		}
	}

	existing.RuleType = input.RuleType
	existing.Points = input.Points
	existing.Description = strings.TrimSpace(input.Description)
	existing.Details = input.Details
	existing.IsActive = input.IsActive

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return &existing, nil
}

// Delete 删除指定规则
func (s *RuleService) Delete(id uint) error {
	if err := s.db.Delete(&db.ChallengeRule{}, id).Error; err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// PointTable 加载启用中的规则并构建分值查找表
// 同类型出现多条启用规则时，id 较小者生效
func (s *RuleService) PointTable() (PointTable, error) {
	rules, err := s.ActiveRules()
	if err != nil {
		return nil, err
	}

	table := make(PointTable, len(rules))
	for _, rule := range rules {
		if _, exists := table[rule.RuleType]; exists {
			continue
		}
		table[rule.RuleType] = rule.Points
	}

	return table, nil
}

func (s *RuleService) ensureNoActiveDuplicate(ruleType db.RuleType, excludeID uint) error {
	var count int64
	query := s.db.Model(&db.ChallengeRule{}).
		Where("rule_type = ? AND is_active = ?", ruleType, true)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check duplicate rule: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrRuleDuplicate, ruleType)
	}
	return nil
}
