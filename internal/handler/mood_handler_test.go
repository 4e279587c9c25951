package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRecordAndListMoods(t *testing.T) {
	router := newTestRouter(newTestAPI(t))
	token := signupToken(t, router, "a@example.com")

	for i, level := range []int{5, 5, 1, 1} {
		recorder := doJSON(t, router, http.MethodPost, "/api/moods", token, gin.H{
			"date":       fmt.Sprintf("2024-05-%02d", 6+i),
			"mood_level": level,
		})
		if recorder.Code != http.StatusCreated {
			t.Fatalf("record expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
	}

	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{name: "duplicate day", body: gin.H{"date": "2024-05-06", "mood_level": 3}, status: http.StatusConflict},
		{name: "level too high", body: gin.H{"date": "2024-05-20", "mood_level": 6}, status: http.StatusBadRequest},
		{name: "bad date", body: gin.H{"date": "06/05/2024", "mood_level": 3}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doJSON(t, router, http.MethodPost, "/api/moods", token, tt.body)
			if recorder.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, recorder.Code)
			}
		})
	}

	list := doJSON(t, router, http.MethodGet, "/api/moods?start=2024-05-01&end=2024-05-31", token, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list expected 200, got %d", list.Code)
	}
	entries := decodeBody(t, list)["entries"].([]any)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["date"] != "2024-05-06" {
		t.Fatalf("expected ascending order, got first date %v", first["date"])
	}

	weekly := doJSON(t, router, http.MethodGet, "/api/moods/weekly?week_start=2024-05-06&lang=zh", token, nil)
	if weekly.Code != http.StatusOK {
		t.Fatalf("weekly expected 200, got %d", weekly.Code)
	}
	summary := decodeBody(t, weekly)["summary"].(map[string]any)
	if summary["trend"] != "declining" || summary["average_mood"].(float64) != 3.0 {
		t.Fatalf("unexpected summary %#v", summary)
	}
	if summary["most_frequent_mood"].(float64) != 5 {
		t.Fatalf("expected most frequent 5, got %v", summary["most_frequent_mood"])
	}
	insights := summary["insights"].([]any)
	if len(insights) == 0 || !strings.Contains(insights[0].(string), "平稳") {
		t.Fatalf("expected chinese insights, got %#v", insights)
	}

	month := doJSON(t, router, http.MethodGet, "/api/moods/month?month=2024-05", token, nil)
	if month.Code != http.StatusOK {
		t.Fatalf("month expected 200, got %d", month.Code)
	}
	monthBody := decodeBody(t, month)
	if got := len(monthBody["entries"].([]any)); got != 4 {
		t.Fatalf("expected 4 entries in month, got %d", got)
	}
	if level := monthBody["days"].(map[string]any)["2024-05-08"]; level != float64(1) {
		t.Fatalf("expected day map level 1 for 2024-05-08, got %v", level)
	}

	if bad := doJSON(t, router, http.MethodGet, "/api/moods/month?month=May", token, nil); bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", bad.Code)
	}

	statsResp := doJSON(t, router, http.MethodGet, "/api/moods/stats?start=2024-05-06&end=2024-05-12", token, nil)
	if statsResp.Code != http.StatusOK {
		t.Fatalf("stats expected 200, got %d", statsResp.Code)
	}
	stats := decodeBody(t, statsResp)
	if stats["current_streak"].(float64) != 4 || stats["day_count"].(float64) != 7 {
		t.Fatalf("unexpected stats %#v", stats)
	}

	if inverted := doJSON(t, router, http.MethodGet, "/api/moods/stats?start=2024-05-12&end=2024-05-06", token, nil); inverted.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", inverted.Code)
	}
}

func TestEnrichAndDeleteMood(t *testing.T) {
	router := newTestRouter(newTestAPI(t))
	token := signupToken(t, router, "a@example.com")
	other := signupToken(t, router, "b@example.com")

	created := doJSON(t, router, http.MethodPost, "/api/moods", token, gin.H{"date": "2024-05-06", "mood_level": 4})
	entry := decodeBody(t, created)["entry"].(map[string]any)
	id := int(entry["id"].(float64))
	target := fmt.Sprintf("/api/moods/%d", id)

	enriched := doJSON(t, router, http.MethodPatch, target+"/enrichment", token, gin.H{"love_message": "**miss you**"})
	if enriched.Code != http.StatusOK {
		t.Fatalf("enrich expected 200, got %d", enriched.Code)
	}
	body := decodeBody(t, enriched)["entry"].(map[string]any)
	if !strings.Contains(body["love_message_html"].(string), "<strong>miss you</strong>") {
		t.Fatalf("expected rendered message, got %#v", body["love_message_html"])
	}
	if body["mood_level"].(float64) != 4 {
		t.Fatalf("enrichment must not change level, got %v", body["mood_level"])
	}

	if recorder := doJSON(t, router, http.MethodDelete, target, other, nil); recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting another user's entry, got %d", recorder.Code)
	}
	if recorder := doJSON(t, router, http.MethodDelete, target, token, nil); recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if recorder := doJSON(t, router, http.MethodDelete, "/api/moods/abc", token, nil); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", recorder.Code)
	}
}

func TestDayAndYearMoods(t *testing.T) {
	router := newTestRouter(newTestAPI(t))
	token := signupToken(t, router, "a@example.com")

	for _, body := range []gin.H{
		{"date": "2024-01-15", "mood_level": 4, "event_label": "看电影"},
		{"date": "2024-01-16", "mood_level": 2},
		{"date": "2024-06-01", "mood_level": 5},
		{"date": "2023-12-31", "mood_level": 1},
	} {
		if recorder := doJSON(t, router, http.MethodPost, "/api/moods", token, body); recorder.Code != http.StatusCreated {
			t.Fatalf("record expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "recorded day", path: "/api/moods/day?date=2024-01-15", status: http.StatusOK},
		{name: "empty day", path: "/api/moods/day?date=2024-01-17", status: http.StatusNotFound},
		{name: "bad date", path: "/api/moods/day?date=15/01/2024", status: http.StatusBadRequest},
		{name: "bad year", path: "/api/moods/year?year=24", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doJSON(t, router, http.MethodGet, tt.path, token, nil)
			if recorder.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, recorder.Code)
			}
		})
	}

	day := decodeBody(t, doJSON(t, router, http.MethodGet, "/api/moods/day?date=2024-01-15", token, nil))
	entry := day["entry"].(map[string]any)
	if entry["mood_level"].(float64) != 4 || entry["event_label"] != "看电影" {
		t.Fatalf("unexpected day entry %#v", entry)
	}

	yearResp := doJSON(t, router, http.MethodGet, "/api/moods/year?year=2024", token, nil)
	if yearResp.Code != http.StatusOK {
		t.Fatalf("year expected 200, got %d", yearResp.Code)
	}
	year := decodeBody(t, yearResp)
	if year["entry_count"].(float64) != 3 {
		t.Fatalf("expected 3 entries in 2024, got %v", year["entry_count"])
	}
	months := year["months"].(map[string]any)
	if len(months) != 2 {
		t.Fatalf("expected two months with entries, got %#v", months)
	}
	january := months["2024-01"].(map[string]any)
	if january["entry_count"].(float64) != 2 || january["average"].(float64) != 3 {
		t.Fatalf("unexpected january bucket %#v", january)
	}
}
