package service

import (
	"errors"
	"testing"
	"time"

	"github.com/moodlink/internal/mood"
)

func newTestMoodService(t *testing.T) (*MoodService, *UserService) {
	t.Helper()
	gdb := setupServiceTestDB(t)
	return NewMoodService(gdb, mood.NewEngine(time.UTC), mood.DefaultInsightBands()), NewUserService(gdb)
}

func TestMoodServiceRecordOncePerDay(t *testing.T) {
	moods, users := newTestMoodService(t)
	user := createTestUser(t, users, "a@example.com")

	day := time.Date(2024, 5, 6, 21, 30, 0, 0, time.UTC)
	entry, err := moods.Record(user.ID, MoodEntryInput{Date: day, Level: 4, EventLabel: " 约会 "})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if !entry.EntryDate.Equal(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date normalized to midnight, got %v", entry.EntryDate)
	}
	if entry.EventLabel != "约会" {
		t.Fatalf("expected trimmed label, got %q", entry.EventLabel)
	}

	// 同一天再次记录
	if _, err := moods.Record(user.ID, MoodEntryInput{Date: day.Add(time.Hour), Level: 2}); !errors.Is(err, ErrMoodEntryExists) {
		t.Fatalf("expected ErrMoodEntryExists, got %v", err)
	}

	if _, err := moods.Record(user.ID, MoodEntryInput{Date: day, Level: 6}); !errors.Is(err, ErrMoodInvalidLevel) {
		t.Fatalf("expected ErrMoodInvalidLevel, got %v", err)
	}

	if err := moods.Delete(user.ID, entry.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := moods.Delete(user.ID, entry.ID); !errors.Is(err, ErrMoodEntryNotFound) {
		t.Fatalf("expected ErrMoodEntryNotFound on second delete, got %v", err)
	}
	if _, err := moods.Record(user.ID, MoodEntryInput{Date: day, Level: 2}); err != nil {
		t.Fatalf("expected re-record after delete to succeed: %v", err)
	}
}

func TestMoodServiceEnrichOnlyTouchesEnrichmentFields(t *testing.T) {
	moods, users := newTestMoodService(t)
	owner := createTestUser(t, users, "owner@example.com")
	stranger := createTestUser(t, users, "stranger@example.com")

	entry, err := moods.Record(owner.ID, MoodEntryInput{Date: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), Level: 3})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	message := "  想你了 **宝贝**  "
	enriched, err := moods.Enrich(owner.ID, entry.ID, MoodEnrichmentInput{LoveMessage: &message})
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if enriched.LoveMessage != "想你了 **宝贝**" {
		t.Fatalf("unexpected love message %q", enriched.LoveMessage)
	}
	if enriched.MoodLevel != 3 || enriched.Insight != "" {
		t.Fatalf("enrichment must not change other fields: %+v", enriched)
	}

	if _, err := moods.Enrich(stranger.ID, entry.ID, MoodEnrichmentInput{LoveMessage: &message}); !errors.Is(err, ErrMoodEntryNotFound) {
		t.Fatalf("expected ErrMoodEntryNotFound for other user, got %v", err)
	}
}

func TestMoodServiceWeeklySummaryAndMonth(t *testing.T) {
	moods, users := newTestMoodService(t)
	user := createTestUser(t, users, "a@example.com")

	weekStart := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	for i, level := range []int{5, 5, 1, 1} {
		if _, err := moods.Record(user.ID, MoodEntryInput{Date: weekStart.AddDate(0, 0, i), Level: level}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	// 下一周与上个月的数据不应计入
	if _, err := moods.Record(user.ID, MoodEntryInput{Date: weekStart.AddDate(0, 0, 7), Level: 5}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if _, err := moods.Record(user.ID, MoodEntryInput{Date: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), Level: 2}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	summary, err := moods.WeeklySummary(user.ID, weekStart, "en")
	if err != nil {
		t.Fatalf("WeeklySummary returned error: %v", err)
	}
	if summary.EntryCount != 4 {
		t.Fatalf("expected 4 entries, got %d", summary.EntryCount)
	}
	if summary.AverageMood != 3.0 {
		t.Fatalf("expected average 3.0, got %v", summary.AverageMood)
	}
	if summary.Trend != mood.TrendDeclining {
		t.Fatalf("expected declining, got %s", summary.Trend)
	}
	if summary.MostFrequentMood != 5 {
		t.Fatalf("expected tie to prefer 5, got %d", summary.MostFrequentMood)
	}
	if len(summary.Insights) == 0 || summary.Insights[0] != mood.DefaultInsightBands().MidText.English {
		t.Fatalf("unexpected insights %#v", summary.Insights)
	}

	month, err := moods.Month(user.ID, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Month returned error: %v", err)
	}
	if len(month) != 5 {
		t.Fatalf("expected 5 entries in May, got %d", len(month))
	}

	stats, err := moods.Stats(user.ID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.EntryCount != 5 || stats.LongestStreak != 4 || stats.CurrentStreak != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMoodServiceCoupleWeek(t *testing.T) {
	moods, users := newTestMoodService(t)
	alice := createTestUser(t, users, "alice@example.com")
	bob := createTestUser(t, users, "bob@example.com")

	if _, err := moods.CoupleWeek(alice, time.Now(), "en"); !errors.Is(err, ErrPartnerNotLinked) {
		t.Fatalf("expected ErrPartnerNotLinked, got %v", err)
	}

	code, err := users.PartnerCode(alice.ID)
	if err != nil {
		t.Fatalf("PartnerCode returned error: %v", err)
	}
	linkedBob, err := users.LinkPartner(bob.ID, code)
	if err != nil {
		t.Fatalf("LinkPartner returned error: %v", err)
	}

	weekStart := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	for i, pair := range [][2]int{{4, 4}, {3, 5}, {2, 2}} {
		date := weekStart.AddDate(0, 0, i)
		if _, err := moods.Record(alice.ID, MoodEntryInput{Date: date, Level: pair[0]}); err != nil {
			t.Fatalf("Record alice returned error: %v", err)
		}
		if _, err := moods.Record(bob.ID, MoodEntryInput{Date: date, Level: pair[1]}); err != nil {
			t.Fatalf("Record bob returned error: %v", err)
		}
	}

	couple, err := moods.CoupleWeek(linkedBob, weekStart, "zh")
	if err != nil {
		t.Fatalf("CoupleWeek returned error: %v", err)
	}
	if couple.SyncedDays != 2 {
		t.Fatalf("expected 2 synced days, got %d", couple.SyncedDays)
	}
	if couple.Self.EntryCount != 3 || couple.Partner.EntryCount != 3 {
		t.Fatalf("unexpected entry counts self=%d partner=%d", couple.Self.EntryCount, couple.Partner.EntryCount)
	}
}

func TestMoodServiceDayAndYear(t *testing.T) {
	moods, users := newTestMoodService(t)
	user := createTestUser(t, users, "a@example.com")
	other := createTestUser(t, users, "b@example.com")

	days := []struct {
		date  time.Time
		level int
	}{
		{time.Date(2023, 12, 31, 9, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), 4},
		{time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC), 2},
		{time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), 5},
	}
	for _, d := range days {
		if _, err := moods.Record(user.ID, MoodEntryInput{Date: d.date, Level: d.level}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	if _, err := moods.Record(other.ID, MoodEntryInput{Date: days[1].date, Level: 1}); err != nil {
		t.Fatalf("Record for other user returned error: %v", err)
	}

	entry, err := moods.Day(user.ID, time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Day returned error: %v", err)
	}
	if entry.MoodLevel != 4 || entry.OwnerID != user.ID {
		t.Fatalf("unexpected day entry %+v", entry)
	}
	if _, err := moods.Day(user.ID, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrMoodEntryNotFound) {
		t.Fatalf("expected ErrMoodEntryNotFound for empty day, got %v", err)
	}

	year, err := moods.Year(user.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Year returned error: %v", err)
	}
	if len(year) != 3 {
		t.Fatalf("expected 3 entries in 2024, got %d", len(year))
	}
	if got := mood.AverageMood(year); got < 3.66 || got > 3.67 {
		t.Fatalf("expected average about 3.67, got %v", got)
	}
}
