package db

import (
	"time"

	"gorm.io/gorm"
)

// Challenge 定义每日挑战目录
// Sort 值越小越靠前，Enabled 控制是否参与打卡与满勤判定
// Icon 字段用于匹配前端内置的图标
type Challenge struct {
	gorm.Model
	Name        string `gorm:"size:80;not null"`
	Description string `gorm:"size:255"`
	Icon        string `gorm:"size:50"`
	Sort        int    `gorm:"default:0"`
	Enabled     bool   `gorm:"default:true"`
}

// DailyChallenge 记录用户单日完成某项挑战
// UserID + ChallengeID + Date 采用唯一索引，保证重复打卡幂等
// 取消打卡时直接删除行，查询已完成记录只需过滤 is_completed
type DailyChallenge struct {
	gorm.Model
	UserID      string    `gorm:"size:36;index;index:idx_daily_challenge_unique,unique"`
	ChallengeID uint      `gorm:"index:idx_daily_challenge_unique,unique"`
	Challenge   Challenge `gorm:"constraint:OnDelete:CASCADE"`
	Date        time.Time `gorm:"index:idx_daily_challenge_unique,unique"`
	IsCompleted bool      `gorm:"default:true"`
}

// TableName 重写确保唯一索引作用到 user_id + challenge_id + date
func (DailyChallenge) TableName() string {
	return "daily_challenges"
}
