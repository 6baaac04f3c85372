// Package eventlog appends structured records to JSONL files for later
// analysis. Appends are one line per record and tolerant of concurrent
// appenders at the file level; callers treat failures as non-fatal.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scrollguard/internal/models"
)

const (
	sessionsFile = "sessions.jsonl"
	nudgesFile   = "nudges.jsonl"
	summaryFile  = "daily_summary.jsonl"
)

// Log writes append-only JSONL event files into a directory.
type Log struct {
	dir string
}

// New creates the log directory if needed and returns a Log.
func New(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}

	return &Log{dir: dir}, nil
}

type sessionEntry struct {
	Timestamp       string  `json:"timestamp"`
	Date            string  `json:"date"`
	Site            string  `json:"site"`
	DurationMinutes float64 `json:"duration_minutes"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DayOfWeek       string  `json:"day_of_week"`
	Hour            int     `json:"hour"`
}

type nudgeEntry struct {
	Timestamp      string  `json:"timestamp"`
	Date           string  `json:"date"`
	Site           string  `json:"site"`
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	SessionMinutes float64 `json:"session_minutes"`
	TotalMinutes   float64 `json:"total_minutes"`
	LimitMinutes   int     `json:"limit_minutes"`
}

type summaryEntry struct {
	Timestamp string               `json:"timestamp"`
	Date      string               `json:"date"`
	Sites     []models.SiteSummary `json:"sites"`
}

// AppendSession logs a completed browsing session.
func (l *Log) AppendSession(sess *models.Session) error {
	end := sess.EndTime

	return l.append(sessionsFile, sessionEntry{
		Timestamp:       end.Format(time.RFC3339),
		Date:            models.DateOf(end),
		Site:            sess.Site,
		DurationMinutes: round2(sess.Duration().Minutes()),
		StartTime:       sess.StartTime.Format(time.RFC3339),
		EndTime:         end.Format(time.RFC3339),
		DayOfWeek:       end.Weekday().String(),
		Hour:            end.Hour(),
	})
}

// AppendNudge logs an emitted nudge or block event.
func (l *Log) AppendNudge(evt *models.NudgeEvent, now time.Time) error {
	return l.append(nudgesFile, nudgeEntry{
		Timestamp:      now.Format(time.RFC3339),
		Date:           models.DateOf(now),
		Site:           evt.Site,
		Type:           string(evt.Type),
		Severity:       string(evt.Severity),
		SessionMinutes: round2(evt.SessionMinutes),
		TotalMinutes:   round2(evt.TotalMinutes),
		LimitMinutes:   evt.LimitMinutes,
	})
}

// AppendSummary logs a daily summary snapshot.
func (l *Log) AppendSummary(summary models.DailySummary, now time.Time) error {
	return l.append(summaryFile, summaryEntry{
		Timestamp: now.Format(time.RFC3339),
		Date:      summary.Date,
		Sites:     summary.Sites,
	})
}

func (l *Log) append(name string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", name, err)
	}

	path := filepath.Join(l.dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}

	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
