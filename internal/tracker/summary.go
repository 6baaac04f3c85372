package tracker

import (
	"sort"
	"time"

	"scrollguard/internal/config"
	"scrollguard/internal/models"
)

// BuildSummary projects per-site totals into the daily summary. It is a pure
// function of its inputs: calling it twice with the same totals yields the
// same output. Sites with no accumulated time are omitted. Percentages are
// computed against the configured (not work-hours-adjusted) daily limit;
// a site missing from the config reports a zero limit and zero percentage.
func BuildSummary(now time.Time, totals map[string]time.Duration, cfg *config.Config) models.DailySummary {
	summary := models.DailySummary{
		Date:  models.DateOf(now),
		Sites: make([]models.SiteSummary, 0, len(totals)),
	}

	for site, total := range totals {
		if total <= 0 {
			continue
		}

		minutes := total.Minutes()

		var limit int
		if limits, ok := cfg.Sites[site]; ok {
			limit = limits.DailyLimit
		}

		var pct float64
		if limit > 0 {
			pct = minutes / float64(limit) * 100
		}

		summary.Sites = append(summary.Sites, models.SiteSummary{
			Site:         site,
			Minutes:      minutes,
			LimitMinutes: limit,
			Percentage:   pct,
			OverLimit:    limit > 0 && minutes > float64(limit),
		})
	}

	sort.Slice(summary.Sites, func(i, j int) bool {
		a, b := summary.Sites[i], summary.Sites[j]
		if a.Minutes != b.Minutes {
			return a.Minutes > b.Minutes
		}
		return a.Site < b.Site
	})

	return summary
}
