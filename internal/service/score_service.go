package service

import (
	"log"
	"math"
	"time"

	"github.com/burnlog/internal/db"
	"gorm.io/gorm"
)

const scoreDateFormat = "2006-01-02"

// defaultScoreWindowDays 为未指定区间时的默认统计跨度
const defaultScoreWindowDays = 30

// ScoreResult 汇总单个用户的积分与体重变化
// TotalWeightLost/WeeklyWeightChange 为带符号的公斤数，正值表示减重
type ScoreResult struct {
	TotalPoints         int     `json:"total_points"`
	WeeklyPoints        int     `json:"weekly_points"`
	ChallengesCompleted int     `json:"challenges_completed"`
	TotalWeightLost     float64 `json:"total_weight_lost"`
	WeeklyWeightChange  float64 `json:"weekly_weight_change"`
	InitialWeight       float64 `json:"initial_weight"`
	PerfectDays         int     `json:"perfect_days"`
}

// ScoreService 是积分引擎：把用户的打卡与称重数据换算为积分
// 规则表每次计算时重新加载，缺失类型回退到默认分值
// 任何数据读取失败只记录日志并返回全零结果，不向上传播
type ScoreService struct {
	rules      *RuleService
	challenges *ChallengeService
	weights    *WeightService

	// now 可在测试中注入以固定时间
	now func() time.Time
}

// NewScoreService 构造 ScoreService
func NewScoreService(gdb *gorm.DB) *ScoreService {
	return &ScoreService{
		rules:      NewRuleService(gdb),
		challenges: NewChallengeService(gdb),
		weights:    NewWeightService(gdb),
		now:        time.Now,
	}
}

// CalculateUserPoints 计算用户在指定区间内的积分
// start/end 均为 nil 时使用截至今天的 30 天滚动窗口；
// 只给 end 时窗口为 end 往前推 30 天，只给 start 时窗口截至今天
func (s *ScoreService) CalculateUserPoints(userID string, start, end *time.Time) ScoreResult {
	result, err := s.calculate(userID, start, end)
	if err != nil {
		log.Printf("calculate points for user %s: %v", userID, err)
		return ScoreResult{}
	}
	return result
}

func (s *ScoreService) calculate(userID string, start, end *time.Time) (ScoreResult, error) {
	now := s.now()
	today := normalizeToDate(now)

	windowEnd := today
	if end != nil {
		windowEnd = normalizeToDate(*end)
	}
	windowStart := windowEnd.AddDate(0, 0, -defaultScoreWindowDays)
	if start != nil {
		windowStart = normalizeToDate(*start)
	}

	table, err := s.rules.PointTable()
	if err != nil {
		return ScoreResult{}, err
	}

	completionPoints := table.Points(db.RuleChallengeCompletion)
	perfectBonus := table.Points(db.RuleDailyPerfectBonus)
	lossRate := table.Points(db.RuleWeightLossPerKg)
	gainRate := table.Points(db.RuleWeightGainPerKg)

	completions, err := s.challenges.CompletedInRange(CompletionFilter{
		UserID: userID,
		Start:  windowStart,
		End:    windowEnd,
	})
	if err != nil {
		return ScoreResult{}, err
	}

	perfectTarget := s.perfectDayTarget()

	// 按日聚合打卡数；日期键用 YYYY-MM-DD，字符串比较即日期比较
	perDay := make(map[string]int)
	for _, record := range completions {
		perDay[record.Date.Format(scoreDateFormat)]++
	}

	weekCutoff := today.AddDate(0, 0, -7).Format(scoreDateFormat)

	var result ScoreResult
	var total, weekly float64

	result.ChallengesCompleted = len(completions)
	for day, count := range perDay {
		points := float64(count) * completionPoints
		if count >= perfectTarget {
			points += perfectBonus
			result.PerfectDays++
		}
		total += points
		if day >= weekCutoff {
			weekly += points
		}
	}

	// 全程体重变化：首条记录为固定基线，和最新记录求差
	entries, err := s.weights.ListAsc(userID)
	if err != nil {
		return ScoreResult{}, err
	}

	if len(entries) > 0 {
		result.InitialWeight = entries[0].Weight
		diff := entries[0].Weight - entries[len(entries)-1].Weight
		result.TotalWeightLost = diff
		if diff > 0 {
			total += math.Round(diff * lossRate)
		} else if diff < 0 {
			total += math.Round(-diff * gainRate)
		}
	}

	// 周度体重变化：取本周一与上周一各自之前最近的称重，差值只计入周积分
	currentMonday := mondayOf(today)
	previousMonday := currentMonday.AddDate(0, 0, -7)

	currentRef, err := s.weights.ClosestOnOrBefore(userID, currentMonday)
	if err != nil {
		return ScoreResult{}, err
	}
	previousRef, err := s.weights.ClosestOnOrBefore(userID, previousMonday)
	if err != nil {
		return ScoreResult{}, err
	}

	if currentRef != nil && previousRef != nil {
		weeklyDiff := previousRef.Weight - currentRef.Weight
		result.WeeklyWeightChange = weeklyDiff
		if weeklyDiff > 0 {
			weekly += math.Round(weeklyDiff * lossRate)
		} else if weeklyDiff < 0 {
			weekly += math.Round(-weeklyDiff * gainRate)
		}
	}

	// 错过称重罚分：周一中午后生效，窗口为本周一至周二
	// 从未称重的用户不参与体重计分，也不触发罚分
	if len(entries) > 0 && missedWeighInDue(now) {
		hasEntry, err := s.weights.HasEntryBetween(userID, currentMonday, currentMonday.AddDate(0, 0, 1))
		if err != nil {
			return ScoreResult{}, err
		}
		if !hasEntry {
			penalty := math.Round(table.Points(db.RuleMissedWeighIn))
			total += penalty
			weekly += penalty
		}
	}

	result.TotalPoints = int(math.Round(total))
	if result.TotalPoints < 0 {
		result.TotalPoints = 0
	}
	result.WeeklyPoints = int(math.Round(weekly))

	return result, nil
}

// perfectDayTarget 返回满勤判定需要的完成数：启用中的挑战数量
// 目录不可读或为空时回退到默认的 7 项
func (s *ScoreService) perfectDayTarget() int {
	count, err := s.challenges.EnabledCount()
	if err != nil {
		log.Printf("count enabled challenges: %v", err)
		return defaultDailyChallengeCount
	}
	if count <= 0 {
		return defaultDailyChallengeCount
	}
	return count
}

// mondayOf 返回指定日期所在 ISO 周的周一；周日视为上一周的第七天
func mondayOf(day time.Time) time.Time {
	weekday := int(day.Weekday())
	offset := 1 - weekday
	if weekday == 0 {
		offset = -6
	}
	return day.AddDate(0, 0, offset)
}

// missedWeighInDue 判断当前时刻是否已过周一中午的称重宽限期
func missedWeighInDue(now time.Time) bool {
	weekday := int(now.Weekday())
	return weekday > 1 || (weekday == 1 && now.Hour() > 12)
}
