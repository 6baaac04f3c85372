package tracker

import (
	"time"

	"scrollguard/internal/models"
)

// DayTotals accumulates per-site time for a single calendar date. Both the
// read and the write side check for a date change first, so the totals for
// one day are discarded exactly once the moment any operation observes a new
// date, even if the process sat idle across midnight.
type DayTotals struct {
	date   string
	totals map[string]time.Duration
}

// NewDayTotals returns an empty accumulator for the date of now.
func NewDayTotals(now time.Time) *DayTotals {
	return &DayTotals{
		date:   models.DateOf(now),
		totals: make(map[string]time.Duration),
	}
}

// RollIn folds a completed session into the current day's totals. A session
// that closes after midnight counts toward the new day; that boundary
// simplification is accepted behavior.
func (d *DayTotals) RollIn(now time.Time, sess *models.Session) {
	d.rollover(now)

	d.totals[sess.Site] += sess.Duration()
}

// TotalFor returns the accumulated time for a site today, zero if none.
func (d *DayTotals) TotalFor(now time.Time, site string) time.Duration {
	d.rollover(now)

	return d.totals[site]
}

// Snapshot returns a copy of today's totals.
func (d *DayTotals) Snapshot(now time.Time) map[string]time.Duration {
	d.rollover(now)

	out := make(map[string]time.Duration, len(d.totals))
	for site, total := range d.totals {
		out[site] = total
	}

	return out
}

// Date returns the calendar date the totals belong to.
func (d *DayTotals) Date() string {
	return d.date
}

func (d *DayTotals) rollover(now time.Time) {
	today := models.DateOf(now)
	if today == d.date {
		return
	}

	d.date = today
	d.totals = make(map[string]time.Duration)
}
