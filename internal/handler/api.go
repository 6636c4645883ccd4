package handler

import (
	"github.com/burnlog/internal/service"
	"gorm.io/gorm"
)

// API 聚合全部 HTTP 处理器共享的服务依赖
type API struct {
	db          *gorm.DB
	rules       *service.RuleService
	challenges  *service.ChallengeService
	weights     *service.WeightService
	scores      *service.ScoreService
	leaderboard *service.LeaderboardService
	profiles    *service.ProfileService
	uploadDir   string
	uploadURL   string
}

// NewAPI 构造处理器集合并初始化各服务
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string) *API {
	return &API{
		db:          gdb,
		rules:       service.NewRuleService(gdb),
		challenges:  service.NewChallengeService(gdb),
		weights:     service.NewWeightService(gdb),
		scores:      service.NewScoreService(gdb),
		leaderboard: service.NewLeaderboardService(gdb),
		profiles:    service.NewProfileService(gdb),
		uploadDir:   uploadDir,
		uploadURL:   uploadURL,
	}
}
