package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// defaultChallenges 为空目录时写入的七项默认每日挑战
var defaultChallenges = []Challenge{
	{Name: "喝水 2 升", Description: "全天累计饮水 2L", Icon: "water", Sort: 1, Enabled: true},
	{Name: "步行 8000 步", Description: "达成当日步数目标", Icon: "steps", Sort: 2, Enabled: true},
	{Name: "运动 30 分钟", Description: "任意形式的有氧或力量训练", Icon: "workout", Sort: 3, Enabled: true},
	{Name: "吃够蔬菜", Description: "至少三份蔬菜", Icon: "veggie", Sort: 4, Enabled: true},
	{Name: "零含糖饮料", Description: "全天不喝含糖饮料", Icon: "nosugar", Sort: 5, Enabled: true},
	{Name: "睡满 7 小时", Description: "保证充足睡眠", Icon: "sleep", Sort: 6, Enabled: true},
	{Name: "记录三餐", Description: "完成当日饮食记录", Icon: "journal", Sort: 7, Enabled: true},
}

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 burnlog.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "burnlog.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return err
	}

	// 自动迁移模式，为核心模型创建表
	if err = DB.AutoMigrate(
		&User{},
		&Profile{},
		&Challenge{},
		&DailyChallenge{},
		&WeightEntry{},
		&ChallengeRule{},
	); err != nil {
		return err
	}

	return SeedDefaultChallenges(DB)
}

// SeedDefaultChallenges 在挑战目录为空时写入默认的七项每日挑战。
// 已有数据时不做任何修改，管理端的增删不会被覆盖。
func SeedDefaultChallenges(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&Challenge{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := make([]Challenge, len(defaultChallenges))
	copy(seed, defaultChallenges)
	return gdb.Create(&seed).Error
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
