package service

import (
	"math"
	"testing"
	"time"

	"github.com/burnlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupScoreTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Challenge{}, &db.DailyChallenge{}, &db.WeightEntry{}, &db.ChallengeRule{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := db.SeedDefaultChallenges(gdb); err != nil {
		t.Fatalf("failed to seed challenges: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func newScoreServiceAt(t *testing.T, now time.Time) *ScoreService {
	t.Helper()
	svc := NewScoreService(db.DB)
	svc.now = func() time.Time { return now }
	return svc
}

// mondayAt 返回一个固定的周一时间点，避免测试依赖真实日历
func mondayAt(hour int) time.Time {
	return time.Date(2025, 6, 9, hour, 0, 0, 0, time.Local) // 2025-06-09 是周一
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateUserPointsEmptyState(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	svc := newScoreServiceAt(t, mondayAt(15))
	result := svc.CalculateUserPoints("user-empty", nil, nil)

	if result != (ScoreResult{}) {
		t.Fatalf("expected zero result, got %+v", result)
	}
}

func TestCalculateUserPointsChallengeCompletion(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-challenges"

	challenges := NewChallengeService(db.DB)

	// 今天完成 5 项
	for id := uint(1); id <= 5; id++ {
		if err := challenges.Toggle(userID, id, now, true); err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if result.TotalPoints != 50 {
		t.Fatalf("expected 50 points, got %d", result.TotalPoints)
	}
	if result.WeeklyPoints != 50 {
		t.Fatalf("expected 50 weekly points, got %d", result.WeeklyPoints)
	}
	if result.PerfectDays != 0 {
		t.Fatalf("expected no perfect day, got %d", result.PerfectDays)
	}

	// 第 6 项：恰好增加单项分值
	if err := challenges.Toggle(userID, 6, now, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	result = svc.CalculateUserPoints(userID, nil, nil)
	if result.TotalPoints != 60 {
		t.Fatalf("expected 60 points after 6th completion, got %d", result.TotalPoints)
	}

	// 第 7 项：触发满勤奖励
	if err := challenges.Toggle(userID, 7, now, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	result = svc.CalculateUserPoints(userID, nil, nil)
	if result.TotalPoints != 80 {
		t.Fatalf("expected 80 points after perfect day, got %d", result.TotalPoints)
	}
	if result.PerfectDays != 1 {
		t.Fatalf("expected 1 perfect day, got %d", result.PerfectDays)
	}
	if result.ChallengesCompleted != 7 {
		t.Fatalf("expected 7 completions, got %d", result.ChallengesCompleted)
	}
}

func TestCalculateUserPointsToggleIdempotent(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-idempotent"

	challenges := NewChallengeService(db.DB)
	for i := 0; i < 3; i++ {
		if err := challenges.Toggle(userID, 1, now, true); err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if result.TotalPoints != 10 {
		t.Fatalf("expected 10 points for repeated toggles, got %d", result.TotalPoints)
	}
	if result.ChallengesCompleted != 1 {
		t.Fatalf("expected 1 completion, got %d", result.ChallengesCompleted)
	}
}

func TestCalculateUserPointsOldCompletionsExcludedFromWeekly(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-window"

	challenges := NewChallengeService(db.DB)
	// 今天 2 项，10 天前 3 项
	if err := challenges.Toggle(userID, 1, now, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := challenges.Toggle(userID, 2, now, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	old := now.AddDate(0, 0, -10)
	for id := uint(1); id <= 3; id++ {
		if err := challenges.Toggle(userID, id, old, true); err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if result.TotalPoints != 50 {
		t.Fatalf("expected 50 total points, got %d", result.TotalPoints)
	}
	if result.WeeklyPoints != 20 {
		t.Fatalf("expected 20 weekly points, got %d", result.WeeklyPoints)
	}
}

func TestCalculateUserPointsWeightLoss(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-loss"

	weights := NewWeightService(db.DB)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 80, RecordedAt: now.AddDate(0, 0, -20)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 78, RecordedAt: now.AddDate(0, 0, -3)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if !approxEqual(result.InitialWeight, 80) {
		t.Fatalf("expected initial weight 80, got %f", result.InitialWeight)
	}
	if !approxEqual(result.TotalWeightLost, 2) {
		t.Fatalf("expected 2kg lost, got %f", result.TotalWeightLost)
	}
	// 全程减重 2kg = 30 分；周度参照同样相差 2kg，只计入周积分
	if result.TotalPoints != 30 {
		t.Fatalf("expected 30 total points, got %d", result.TotalPoints)
	}
	if !approxEqual(result.WeeklyWeightChange, 2) {
		t.Fatalf("expected weekly change 2, got %f", result.WeeklyWeightChange)
	}
	if result.WeeklyPoints != 30 {
		t.Fatalf("expected 30 weekly points, got %d", result.WeeklyPoints)
	}

	// 追加第三条记录：基线不变
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 77, RecordedAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	result = svc.CalculateUserPoints(userID, nil, nil)
	if !approxEqual(result.InitialWeight, 80) {
		t.Fatalf("initial weight shifted after append: %f", result.InitialWeight)
	}
	if !approxEqual(result.TotalWeightLost, 3) {
		t.Fatalf("expected 3kg lost, got %f", result.TotalWeightLost)
	}
}

func TestCalculateUserPointsWeightGainClampsTotal(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-gain"

	weights := NewWeightService(db.DB)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 80, RecordedAt: now.AddDate(0, 0, -20)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 82, RecordedAt: now.AddDate(0, 0, -2)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	// 增重 2kg 为 -30 分，总分钳位到 0，周积分允许为负
	if result.TotalPoints != 0 {
		t.Fatalf("expected clamped total 0, got %d", result.TotalPoints)
	}
	if result.WeeklyPoints != -30 {
		t.Fatalf("expected weekly -30, got %d", result.WeeklyPoints)
	}
	if !approxEqual(result.TotalWeightLost, -2) {
		t.Fatalf("expected -2kg, got %f", result.TotalWeightLost)
	}
}

func TestCalculateUserPointsMissedWeighIn(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	// 周二 15 点，本周一之后没有称重记录
	now := mondayAt(0).AddDate(0, 0, 1).Add(15 * time.Hour)
	userID := "user-missed"

	weights := NewWeightService(db.DB)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 85, RecordedAt: now.AddDate(0, 0, -21)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 80, RecordedAt: now.AddDate(0, 0, -10)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	// 全程减重 5kg = 75 分，罚分 -30 各记一次
	if result.TotalPoints != 45 {
		t.Fatalf("expected 45 total points, got %d", result.TotalPoints)
	}
	if result.WeeklyPoints != -30 {
		t.Fatalf("expected weekly -30, got %d", result.WeeklyPoints)
	}
}

func TestCalculateUserPointsWeighInWithinGracePeriod(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	// 周一上午：宽限期内不罚分
	now := mondayAt(10)
	userID := "user-grace"

	weights := NewWeightService(db.DB)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 80, RecordedAt: now.AddDate(0, 0, -10)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if result.WeeklyPoints != 0 {
		t.Fatalf("expected no penalty on monday morning, got %d", result.WeeklyPoints)
	}
}

func TestCalculateUserPointsTuesdayWeighInAvoidsPenalty(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	// 周三：周二完成了称重，不应罚分
	now := mondayAt(0).AddDate(0, 0, 2).Add(9 * time.Hour)
	userID := "user-ontime"

	weights := NewWeightService(db.DB)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 80, RecordedAt: now.AddDate(0, 0, -15)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	tuesday := mondayAt(8).AddDate(0, 0, 1)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 80, RecordedAt: tuesday}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if result.WeeklyPoints != 0 {
		t.Fatalf("expected no penalty after tuesday weigh-in, got %d", result.WeeklyPoints)
	}
}

func TestCalculateUserPointsSundayResolvesCurrentWeekMonday(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	// 周日 2025-06-15 视为本周第七天：本周一为 06-09，上周一为 06-02
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)
	userID := "user-sunday"

	weights := NewWeightService(db.DB)
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 82, RecordedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := weights.Add(WeightInput{UserID: userID, Weight: 81, RecordedAt: time.Date(2025, 6, 8, 9, 0, 0, 0, time.Local)}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	// 周参照取 06-09 之前最近的 06-08 记录与 06-02 之前最近的 06-01 记录
	if !approxEqual(result.WeeklyWeightChange, 1) {
		t.Fatalf("expected weekly change 1, got %f", result.WeeklyWeightChange)
	}
	// 本周一之后无称重，但周日尚未过称重宽限期，不应罚分
	if result.WeeklyPoints != 15 {
		t.Fatalf("expected 15 weekly points without penalty, got %d", result.WeeklyPoints)
	}
	if result.TotalPoints != 15 {
		t.Fatalf("expected 15 total points, got %d", result.TotalPoints)
	}
}

func TestCalculateUserPointsCustomRules(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-custom"

	if err := db.DB.Create(&db.ChallengeRule{RuleType: db.RuleChallengeCompletion, Points: 5, IsActive: true}).Error; err != nil {
		t.Fatalf("failed to seed rule: %v", err)
	}

	challenges := NewChallengeService(db.DB)
	if err := challenges.Toggle(userID, 1, now, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)

	if result.TotalPoints != 5 {
		t.Fatalf("expected 5 points with custom rule, got %d", result.TotalPoints)
	}
}

func TestCalculateUserPointsExplicitRange(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-range"

	challenges := NewChallengeService(db.DB)
	// 40 天前的打卡在默认窗口之外
	old := now.AddDate(0, 0, -40)
	if err := challenges.Toggle(userID, 1, old, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	result := svc.CalculateUserPoints(userID, nil, nil)
	if result.TotalPoints != 0 {
		t.Fatalf("expected 0 points in default window, got %d", result.TotalPoints)
	}

	start := now.AddDate(0, 0, -60)
	result = svc.CalculateUserPoints(userID, &start, nil)
	if result.TotalPoints != 10 {
		t.Fatalf("expected 10 points in explicit range, got %d", result.TotalPoints)
	}
}

func TestCalculateUserPointsEndOnlyWindow(t *testing.T) {
	cleanup := setupScoreTestDB(t)
	defer cleanup()

	now := mondayAt(10)
	userID := "user-end-only"

	challenges := NewChallengeService(db.DB)
	// 45 天前的打卡只落在 end 往前推 30 天的窗口里
	if err := challenges.Toggle(userID, 1, now.AddDate(0, 0, -45), true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := challenges.Toggle(userID, 2, now, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	svc := newScoreServiceAt(t, now)
	end := now.AddDate(0, 0, -40)
	result := svc.CalculateUserPoints(userID, nil, &end)

	if result.TotalPoints != 10 {
		t.Fatalf("expected 10 points in end-anchored window, got %d", result.TotalPoints)
	}
	if result.ChallengesCompleted != 1 {
		t.Fatalf("expected 1 completion, got %d", result.ChallengesCompleted)
	}
}
