package models

import (
	"time"

	"gorm.io/gorm"
)

// EventType classifies an emitted reminder event.
type EventType string

// Severity classifies how urgent a nudge is.
type Severity string

const (
	EventNudge EventType = "NUDGE"
	EventBlock EventType = "BLOCK"

	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Session is a contiguous interval during which a single tracked site was
// the detected foreground target. Once closed it is immutable.
type Session struct {
	Site      string
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the session length, clamped to zero so a backwards
// clock jump never produces a negative duration.
func (s *Session) Duration() time.Duration {
	d := s.EndTime.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// NudgeEvent is the output of the nudge decision engine for one poll cycle.
type NudgeEvent struct {
	Type           EventType
	Severity       Severity
	Site           string
	Message        string
	SessionMinutes float64
	TotalMinutes   float64
	LimitMinutes   int
}

// SessionRecord is the durable form of a completed session.
type SessionRecord struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Date            string         `gorm:"not null;index" json:"date"`
	Site            string         `gorm:"not null;index" json:"site"`
	StartTime       time.Time      `gorm:"not null" json:"start_time"`
	EndTime         time.Time      `gorm:"not null;index" json:"end_time"`
	DurationSeconds int64          `gorm:"not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// NudgeRecord is the durable form of an emitted nudge or block event.
type NudgeRecord struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Timestamp      time.Time      `gorm:"not null;index" json:"timestamp"`
	Date           string         `gorm:"not null;index" json:"date"`
	Site           string         `gorm:"not null;index" json:"site"`
	Type           string         `gorm:"not null" json:"type"`
	Severity       string         `json:"severity"`
	SessionMinutes float64        `gorm:"not null;default:0" json:"session_minutes"`
	TotalMinutes   float64        `gorm:"not null;default:0" json:"total_minutes"`
	LimitMinutes   int            `gorm:"not null;default:0" json:"limit_minutes"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// SummaryRecord is a persisted daily-summary snapshot, one row per site.
type SummaryRecord struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"not null;index" json:"timestamp"`
	Date         string         `gorm:"not null;index" json:"date"`
	Site         string         `gorm:"not null;index" json:"site"`
	Minutes      float64        `gorm:"not null;default:0" json:"minutes"`
	LimitMinutes int            `gorm:"not null;default:0" json:"limit_minutes"`
	OverLimit    bool           `gorm:"not null;default:false" json:"over_limit"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// SiteSummary is one row of the daily-summary projection.
type SiteSummary struct {
	Site         string  `json:"site"`
	Minutes      float64 `json:"minutes"`
	LimitMinutes int     `json:"limit_minutes"`
	Percentage   float64 `json:"percentage"`
	OverLimit    bool    `json:"over_limit"`
}

// DailySummary is the read-only projection of the daily accumulator.
type DailySummary struct {
	Date  string        `json:"date"`
	Sites []SiteSummary `json:"sites"`
}

// SiteUsage is aggregated usage for one site over a report period.
type SiteUsage struct {
	Site         string  `json:"site"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	SessionCount int     `json:"session_count"`
	LimitMinutes int     `json:"limit_minutes,omitempty"`
	Percentage   float64 `json:"percentage,omitempty"`
}

// ReportPeriod is the time range a report covers.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

// Report is an aggregated usage report over a period.
type Report struct {
	Period       ReportPeriod `json:"period"`
	Sites        []SiteUsage  `json:"sites"`
	TotalSeconds int64        `json:"total_seconds"`
	TotalMinutes float64      `json:"total_minutes"`
	GeneratedAt  time.Time    `json:"generated_at"`
}

// DateOf returns the calendar date of t in its own location, formatted as
// the canonical key used across the store and the accumulator.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
