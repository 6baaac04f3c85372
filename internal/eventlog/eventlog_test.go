package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scrollguard/internal/models"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	var records []map[string]any

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(records)+1, err)
		}
		records = append(records, rec)
	}

	return records
}

func TestAppendSession(t *testing.T) {
	dir := t.TempDir()

	log, err := New(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	start := time.Date(2025, 6, 2, 14, 0, 0, 0, time.Local)
	sess := &models.Session{
		Site:      "youtube.com",
		StartTime: start,
		EndTime:   start.Add(15*time.Minute + 30*time.Second),
	}

	if err := log.AppendSession(sess); err != nil {
		t.Fatalf("AppendSession() error = %v", err)
	}
	if err := log.AppendSession(sess); err != nil {
		t.Fatalf("AppendSession() second call error = %v", err)
	}

	records := readLines(t, filepath.Join(dir, "logs", "sessions.jsonl"))
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	rec := records[0]
	if rec["site"] != "youtube.com" {
		t.Errorf("site = %v, want youtube.com", rec["site"])
	}
	if rec["duration_minutes"] != 15.5 {
		t.Errorf("duration_minutes = %v, want 15.5", rec["duration_minutes"])
	}
	if rec["date"] != "2025-06-02" {
		t.Errorf("date = %v, want 2025-06-02", rec["date"])
	}
	if rec["day_of_week"] != "Monday" {
		t.Errorf("day_of_week = %v, want Monday", rec["day_of_week"])
	}
}

func TestAppendNudge(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.Date(2025, 6, 2, 14, 15, 0, 0, time.Local)
	evt := &models.NudgeEvent{
		Type:           models.EventBlock,
		Severity:       models.SeverityWarning,
		Site:           "reddit.com",
		SessionMinutes: 15,
		TotalMinutes:   70,
		LimitMinutes:   60,
	}

	if err := log.AppendNudge(evt, now); err != nil {
		t.Fatalf("AppendNudge() error = %v", err)
	}

	records := readLines(t, filepath.Join(dir, "nudges.jsonl"))
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec["type"] != "BLOCK" {
		t.Errorf("type = %v, want BLOCK", rec["type"])
	}
	if rec["severity"] != "warning" {
		t.Errorf("severity = %v, want warning", rec["severity"])
	}
	if rec["limit_minutes"] != float64(60) {
		t.Errorf("limit_minutes = %v, want 60", rec["limit_minutes"])
	}
}

func TestAppendSummary(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.Date(2025, 6, 2, 23, 0, 0, 0, time.Local)
	summary := models.DailySummary{
		Date: "2025-06-02",
		Sites: []models.SiteSummary{
			{Site: "youtube.com", Minutes: 72, LimitMinutes: 60, Percentage: 120, OverLimit: true},
		},
	}

	if err := log.AppendSummary(summary, now); err != nil {
		t.Fatalf("AppendSummary() error = %v", err)
	}

	records := readLines(t, filepath.Join(dir, "daily_summary.jsonl"))
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	sites, ok := records[0]["sites"].([]any)
	if !ok || len(sites) != 1 {
		t.Fatalf("sites = %v, want one entry", records[0]["sites"])
	}
}
