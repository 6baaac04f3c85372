package reporter

import (
	"encoding/json"
	"fmt"
	"time"

	"scrollguard/internal/config"
	"scrollguard/internal/database"
	"scrollguard/internal/models"
)

// Reporter generates per-site usage reports from the session store.
type Reporter struct {
	config *config.Config
	repo   *database.Repository
}

// New creates a new reporter.
func New(cfg *config.Config, repo *database.Repository) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
	}
}

// GenerateReport generates a report for the specified period.
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	usage, err := r.repo.GetSiteUsageSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get site usage: %w", err)
	}

	var totalSeconds int64

	for i := range usage {
		usage[i].TotalMinutes = float64(usage[i].TotalSeconds) / 60.0
		totalSeconds += usage[i].TotalSeconds

		// Percent of the daily limit, scaled to the number of days in the
		// period, for sites still present in the config.
		if limits, ok := r.config.Sites[usage[i].Site]; ok && limits.DailyLimit > 0 {
			usage[i].LimitMinutes = limits.DailyLimit

			days := period.End.Sub(period.Start).Hours() / 24
			if days < 1 {
				days = 1
			}

			usage[i].Percentage = usage[i].TotalMinutes / (float64(limits.DailyLimit) * days) * 100.0
		}
	}

	report := &models.Report{
		Period:       *period,
		Sites:        usage,
		TotalSeconds: totalSeconds,
		TotalMinutes: float64(totalSeconds) / 60.0,
		GeneratedAt:  time.Now(),
	}

	return report, nil
}

// getPeriod calculates the time range for the report.
func (r *Reporter) getPeriod(periodType string) (*models.ReportPeriod, error) {
	now := time.Now()

	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.Add(24 * time.Hour)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text.
func (r *Reporter) FormatReportText(report *models.Report) string {
	output := fmt.Sprintf("Site Usage Report - %s\n", report.Period.Type)
	output += fmt.Sprintf("Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	output += fmt.Sprintf("Total Time: %.0fm\n\n", report.TotalMinutes)

	if len(report.Sites) == 0 {
		output += "No tracked site activity recorded for this period.\n"
		return output
	}

	output += fmt.Sprintf("%-30s %10s %10s %10s\n", "Site", "Minutes", "Sessions", "Of limit")
	output += fmt.Sprintf("%s\n", "----------------------------------------------------------------")

	for _, site := range report.Sites {
		ofLimit := "-"
		if site.LimitMinutes > 0 {
			ofLimit = fmt.Sprintf("%.1f%%", site.Percentage)
		}

		output += fmt.Sprintf("%-30s %10.0f %10d %10s\n",
			truncate(site.Site, 30),
			site.TotalMinutes,
			site.SessionCount,
			ofLimit)
	}

	return output
}

// FormatReportJSON formats the report as JSON.
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(data), nil
}

// truncate truncates a string to the specified length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	return s[:maxLen-3] + "..."
}
