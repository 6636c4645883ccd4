package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/burnlog/internal/db"
	"gorm.io/gorm"
)

// LeaderboardEntry 表示排行榜中一名用户的计算结果，不落库，每次请求重算
type LeaderboardEntry struct {
	Rank                int     `json:"rank"`
	UserID              string  `json:"user_id"`
	DisplayName         string  `json:"display_name"`
	TotalPoints         int     `json:"total_points"`
	WeeklyPoints        int     `json:"weekly_points"`
	ChallengesCompleted int     `json:"challenges_completed"`
	PerfectDays         int     `json:"perfect_days"`
	TotalWeightLost     float64 `json:"total_weight_lost"`
	WeeklyWeightChange  float64 `json:"weekly_weight_change"`
	InitialWeight       float64 `json:"initial_weight"`
	IsBurnerOfWeek      bool    `json:"is_burner_of_week"`
	IsCurrentUser       bool    `json:"is_current_user"`
}

// LeaderboardService 汇总全部用户的积分并排名
// 逐用户计分相互独立，并发发起后统一汇合；单个用户失败只降级为全零行
type LeaderboardService struct {
	profiles *ProfileService
	scores   *ScoreService
}

// NewLeaderboardService 构造 LeaderboardService
func NewLeaderboardService(gdb *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		profiles: NewProfileService(gdb),
		scores:   NewScoreService(gdb),
	}
}

// Build 生成完整排行榜；currentUserID 仅用于标记"是我"的行
// 无任何用户资料时返回空切片
func (s *LeaderboardService) Build(currentUserID string) ([]LeaderboardEntry, error) {
	profiles, err := s.profiles.List()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(profiles))

	var wg sync.WaitGroup
	for i, profile := range profiles {
		wg.Add(1)
		go func(i int, profile db.Profile) {
			defer wg.Done()

			result := s.scores.CalculateUserPoints(profile.UserID, nil, nil)
			entries[i] = LeaderboardEntry{
				UserID:              profile.UserID,
				DisplayName:         displayName(profile),
				TotalPoints:         result.TotalPoints,
				WeeklyPoints:        result.WeeklyPoints,
				ChallengesCompleted: result.ChallengesCompleted,
				PerfectDays:         result.PerfectDays,
				TotalWeightLost:     result.TotalWeightLost,
				WeeklyWeightChange:  result.WeeklyWeightChange,
				InitialWeight:       result.InitialWeight,
				IsCurrentUser:       currentUserID != "" && profile.UserID == currentUserID,
			}
		}(i, profile)
	}
	wg.Wait()

	// 稳定排序保证同分用户维持资料获取顺序；名次严格递增，同分不共享名次
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	markBurnerOfWeek(entries)

	return entries, nil
}

// markBurnerOfWeek 标记周减重最多的用户；最大值不为正时无人入选
func markBurnerOfWeek(entries []LeaderboardEntry) {
	best := -1
	var bestChange float64
	for i, entry := range entries {
		if entry.WeeklyWeightChange > bestChange {
			bestChange = entry.WeeklyWeightChange
			best = i
		}
	}
	if best >= 0 {
		entries[best].IsBurnerOfWeek = true
	}
}

// displayName 返回展示昵称，缺失时用用户 ID 前 8 位生成占位名
func displayName(profile db.Profile) string {
	nickname := strings.TrimSpace(profile.Nickname)
	if nickname != "" {
		return nickname
	}

	short := profile.UserID
	if len(short) > 8 {
		short = short[:8]
	}
	return "Utilisateur " + short
}
