package db

import "gorm.io/gorm"

// WeightEntry 记录一次称重
// 写入后不再修改，CreatedAt 即称重时间，按其排序
// 第一条记录的体重作为用户的初始体重基线
// PhotoURL/ThumbURL 保存称重照片及缩略图，Notes 为备注
type WeightEntry struct {
	gorm.Model
	UserID   string  `gorm:"size:36;index;not null"`
	Weight   float64 `gorm:"not null"`
	PhotoURL string  `gorm:"size:255"`
	ThumbURL string  `gorm:"size:255"`
	Notes    string  `gorm:"type:text"`
}

// TableName 返回自定义表名，保持命名一致
func (WeightEntry) TableName() string {
	return "weight_entries"
}
