package db

import "gorm.io/gorm"

// RuleType 表示计分规则的类型，取值限定在下方常量集合内
type RuleType string

const (
	// RuleChallengeCompletion 每完成一项挑战获得的分数
	RuleChallengeCompletion RuleType = "challenge_completion"
	// RuleDailyPerfectBonus 单日完成全部挑战的满勤奖励
	RuleDailyPerfectBonus RuleType = "daily_perfect_bonus"
	// RuleWeightLossPerKg 每减重一公斤获得的分数
	RuleWeightLossPerKg RuleType = "weight_loss_per_kg"
	// RuleWeightGainPerKg 每增重一公斤扣除的分数（配置值为负）
	RuleWeightGainPerKg RuleType = "weight_gain_per_kg"
	// RuleNoWeightChange 体重无变化时的分数
	RuleNoWeightChange RuleType = "no_weight_change"
	// RuleMissedWeighIn 错过每周称重的罚分（配置值为负）
	RuleMissedWeighIn RuleType = "missed_weigh_in"
	// RuleBurnerOfWeekBonus 周燃脂之星的奖励分
	RuleBurnerOfWeekBonus RuleType = "burner_of_week_bonus"
)

// KnownRuleTypes 列出全部合法的规则类型
var KnownRuleTypes = []RuleType{
	RuleChallengeCompletion,
	RuleDailyPerfectBonus,
	RuleWeightLossPerKg,
	RuleWeightGainPerKg,
	RuleNoWeightChange,
	RuleMissedWeighIn,
	RuleBurnerOfWeekBonus,
}

// Valid 判断规则类型是否在合法集合内
func (t RuleType) Valid() bool {
	for _, known := range KnownRuleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ChallengeRule 存储可配置的计分规则
// Points 为单位分值，可正可负；Details 支持 Markdown 展示
// IsActive 为 false 的规则不参与计算与展示
type ChallengeRule struct {
	gorm.Model
	RuleType    RuleType `gorm:"size:50;index;not null"`
	Points      float64  `gorm:"not null"`
	Description string   `gorm:"size:255"`
	Details     string   `gorm:"type:text"`
	IsActive    bool     `gorm:"default:true"`
}

// TableName 返回自定义表名，保持命名一致
func (ChallengeRule) TableName() string {
	return "challenge_rules"
}
