package tracker

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"scrollguard/internal/config"
	"scrollguard/internal/models"
)

func summaryConfig() *config.Config {
	cfg := config.Default()
	cfg.Sites = map[string]config.SiteLimits{
		"youtube.com": {DailyLimit: 60, NudgeInterval: 15},
		"reddit.com":  {DailyLimit: 30, NudgeInterval: 10},
		"twitter.com": {DailyLimit: 30, NudgeInterval: 10},
	}
	return cfg
}

func TestBuildSummary(t *testing.T) {
	cfg := summaryConfig()

	totals := map[string]time.Duration{
		"youtube.com": 45 * time.Minute,
		"reddit.com":  45 * time.Minute, // over its 30-minute limit
		"twitter.com": 0,                // never visited today, omitted
	}

	got := BuildSummary(t0, totals, cfg)

	want := models.DailySummary{
		Date: "2025-06-02",
		Sites: []models.SiteSummary{
			{Site: "reddit.com", Minutes: 45, LimitMinutes: 30, Percentage: 150, OverLimit: true},
			{Site: "youtube.com", Minutes: 45, LimitMinutes: 60, Percentage: 75},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildSummary() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSummaryUnconfiguredSite(t *testing.T) {
	cfg := summaryConfig()

	totals := map[string]time.Duration{
		"news.ycombinator.com": 20 * time.Minute,
	}

	got := BuildSummary(t0, totals, cfg)
	if len(got.Sites) != 1 {
		t.Fatalf("got %d sites, want 1", len(got.Sites))
	}

	site := got.Sites[0]
	if site.LimitMinutes != 0 || site.Percentage != 0 || site.OverLimit {
		t.Errorf("unconfigured site reported limit=%d pct=%v over=%v, want zeros",
			site.LimitMinutes, site.Percentage, site.OverLimit)
	}
}

func TestBuildSummaryEmptyDay(t *testing.T) {
	got := BuildSummary(t0, nil, summaryConfig())

	if got.Date != "2025-06-02" {
		t.Errorf("Date = %q, want 2025-06-02", got.Date)
	}
	if len(got.Sites) != 0 {
		t.Errorf("got %d sites, want none", len(got.Sites))
	}
}

func TestBuildSummarySortOrder(t *testing.T) {
	cfg := summaryConfig()

	totals := map[string]time.Duration{
		"youtube.com": 10 * time.Minute,
		"reddit.com":  30 * time.Minute,
		"twitter.com": 10 * time.Minute,
	}

	got := BuildSummary(t0, totals, cfg)

	order := make([]string, 0, len(got.Sites))
	for _, s := range got.Sites {
		order = append(order, s.Site)
	}

	// Minutes descending, ties broken by site name.
	want := []string{"reddit.com", "twitter.com", "youtube.com"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSummaryIdempotent(t *testing.T) {
	cfg := summaryConfig()

	totals := map[string]time.Duration{
		"youtube.com": 25 * time.Minute,
		"reddit.com":  5 * time.Minute,
	}

	first := BuildSummary(t0, totals, cfg)
	second := BuildSummary(t0, totals, cfg)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated projection differs (-first +second):\n%s", diff)
	}
}
