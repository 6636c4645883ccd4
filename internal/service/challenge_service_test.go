package service

import (
	"testing"
	"time"

	"github.com/burnlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupChallengeTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Challenge{}, &db.DailyChallenge{}); err != nil {
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

func TestChallengeSeedAndList(t *testing.T) {
	cleanup := setupChallengeTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)

	challenges, err := svc.List(true)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(challenges) != 7 {
		t.Fatalf("expected 7 seeded challenges, got %d", len(challenges))
	}

	count, err := svc.EnabledCount()
	if err != nil {
		t.Fatalf("EnabledCount returned error: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7 enabled challenges, got %d", count)
	}

	// 停用一项后不再计入
	if _, err := svc.Update(challenges[0].ID, ChallengeInput{Name: challenges[0].Name, Enabled: false}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	count, err = svc.EnabledCount()
	if err != nil {
		t.Fatalf("EnabledCount returned error: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 enabled challenges, got %d", count)
	}
}

func TestChallengeToggleIdempotent(t *testing.T) {
	cleanup := setupChallengeTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)
	day := time.Date(2025, 6, 9, 14, 30, 0, 0, time.Local)

	for i := 0; i < 3; i++ {
		if err := svc.Toggle("user-1", 1, day, true); err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
	}

	ids, err := svc.CompletedIDs("user-1", day)
	if err != nil {
		t.Fatalf("CompletedIDs returned error: %v", err)
	}
	if len(ids) != 1 || !ids[1] {
		t.Fatalf("expected single completion for challenge 1, got %v", ids)
	}

	var count int64
	if err := db.DB.Model(&db.DailyChallenge{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after repeated toggles, got %d", count)
	}
}

func TestChallengeToggleOffDeletesRow(t *testing.T) {
	cleanup := setupChallengeTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)
	day := time.Date(2025, 6, 9, 8, 0, 0, 0, time.Local)

	if err := svc.Toggle("user-1", 2, day, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := svc.Toggle("user-1", 2, day, false); err != nil {
		t.Fatalf("Toggle off returned error: %v", err)
	}

	ids, err := svc.CompletedIDs("user-1", day)
	if err != nil {
		t.Fatalf("CompletedIDs returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no completions after toggle off, got %v", ids)
	}
}

func TestChallengeCompletedInRange(t *testing.T) {
	cleanup := setupChallengeTestDB(t)
	defer cleanup()

	svc := NewChallengeService(db.DB)
	base := time.Date(2025, 6, 9, 0, 0, 0, 0, time.Local)

	if err := svc.Toggle("user-1", 1, base, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := svc.Toggle("user-1", 2, base.AddDate(0, 0, -5), true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := svc.Toggle("user-1", 3, base.AddDate(0, 0, -40), true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := svc.Toggle("user-2", 1, base, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	records, err := svc.CompletedInRange(CompletionFilter{
		UserID: "user-1",
		Start:  base.AddDate(0, 0, -30),
		End:    base,
	})
	if err != nil {
		t.Fatalf("CompletedInRange returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in window, got %d", len(records))
	}

	// 按挑战 ID 过滤
	records, err = svc.CompletedInRange(CompletionFilter{
		UserID:       "user-1",
		Start:        base.AddDate(0, 0, -30),
		End:          base,
		ChallengeIDs: []uint{2},
	})
	if err != nil {
		t.Fatalf("CompletedInRange returned error: %v", err)
	}
	if len(records) != 1 || records[0].ChallengeID != 2 {
		t.Fatalf("expected only challenge 2, got %+v", records)
	}
}
