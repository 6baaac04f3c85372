package database

import (
	"strings"
	"time"

	"scrollguard/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for tracking records.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// RecordSession inserts a completed session.
func (r *Repository) RecordSession(rec *models.SessionRecord) error {
	rec.Site = strings.ToLower(rec.Site)

	result := r.db.Create(rec)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert session record")
	}

	return nil
}

// RecordNudge inserts an emitted nudge or block event.
func (r *Repository) RecordNudge(rec *models.NudgeRecord) error {
	rec.Site = strings.ToLower(rec.Site)

	result := r.db.Create(rec)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert nudge record")
	}

	return nil
}

// RecordSummary inserts a daily summary snapshot, one row per site.
func (r *Repository) RecordSummary(recs []*models.SummaryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	result := r.db.Create(recs)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert summary records")
	}

	return nil
}

// GetSessionsSince retrieves all sessions that ended since a given time.
func (r *Repository) GetSessionsSince(since time.Time) ([]*models.SessionRecord, error) {
	var recs []*models.SessionRecord

	result := r.db.Where("end_time >= ?", since).Order("end_time ASC").Find(&recs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query session records")
	}

	return recs, nil
}

// GetRecentSessions retrieves the most recent completed sessions.
func (r *Repository) GetRecentSessions(limit int) ([]*models.SessionRecord, error) {
	var recs []*models.SessionRecord

	result := r.db.Order("end_time DESC").Limit(limit).Find(&recs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent sessions")
	}

	return recs, nil
}

// GetNudgesSince retrieves nudge/block events emitted since a given time.
func (r *Repository) GetNudgesSince(since time.Time) ([]*models.NudgeRecord, error) {
	var recs []*models.NudgeRecord

	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&recs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query nudge records")
	}

	return recs, nil
}

// GetSiteUsageSince returns aggregated per-site usage since a given time.
// SQL does the SUM; derived fields are computed by the reporter.
func (r *Repository) GetSiteUsageSince(since time.Time) ([]models.SiteUsage, error) {
	var usage []models.SiteUsage

	result := r.db.Model(&models.SessionRecord{}).
		Select("site, SUM(duration_seconds) as total_seconds, COUNT(*) as session_count").
		Where("end_time >= ?", since).
		Group("site").
		Order("total_seconds DESC").
		Scan(&usage)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query site usage")
	}

	return usage, nil
}

// GetLatestSession retrieves the most recent completed session, nil if none.
func (r *Repository) GetLatestSession() (*models.SessionRecord, error) {
	var rec models.SessionRecord

	result := r.db.Order("end_time DESC").First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(result.Error, "failed to get latest session")
	}

	return &rec, nil
}

// DeleteOldSessions soft-deletes sessions that ended before a given time.
func (r *Repository) DeleteOldSessions(before time.Time) (int64, error) {
	result := r.db.Where("end_time < ?", before).Delete(&models.SessionRecord{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old sessions")
	}

	return result.RowsAffected, nil
}

// Clear removes all tracking data.
func (r *Repository) Clear() error {
	for _, table := range []string{"session_records", "nudge_records", "summary_records"} {
		result := r.db.Exec("DELETE FROM " + table)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to clear "+table)
		}
	}

	return nil
}
