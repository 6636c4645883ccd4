package db

import "gorm.io/gorm"

// Profile 保存用户的展示资料与体重目标
// Nickname 为空时展示层会生成占位昵称
// CurrentWeight/GoalWeight 仅用于展示与资料完整度判断，不参与计分
type Profile struct {
	gorm.Model
	UserID        string `gorm:"size:36;uniqueIndex;not null"`
	Nickname      string `gorm:"size:80"`
	CurrentWeight float64
	GoalWeight    float64
}

// TableName 返回自定义表名，避免冲突
func (Profile) TableName() string {
	return "profiles"
}
