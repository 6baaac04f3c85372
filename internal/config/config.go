package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const appDir = "scrollguard"

// Config holds all application configuration.
type Config struct {
	// Sites maps a tracked site id (e.g. "youtube.com") to its limits.
	Sites map[string]SiteLimits `mapstructure:"tracked_sites"`

	// WorkHours optionally tightens limits during working hours.
	WorkHours WorkHours `mapstructure:"work_hours"`

	// Tracker holds polling behavior settings.
	Tracker TrackerConfig `mapstructure:"tracker"`

	// Notify holds desktop notification settings.
	Notify NotifyConfig `mapstructure:"notifications"`

	// Web holds the API server settings used in serve mode.
	Web WebConfig `mapstructure:"web"`

	// System holds resolved filesystem paths. Not part of the config file.
	System SystemConfig `mapstructure:"-"`
}

// SiteLimits configures limits for a single tracked site.
type SiteLimits struct {
	DailyLimit    int  `mapstructure:"daily_limit"`    // minutes per day
	NudgeInterval int  `mapstructure:"nudge_interval"` // minutes between nudges
	HardBlock     bool `mapstructure:"hard_block"`
}

// WorkHours configures the optional stricter work-hours window.
type WorkHours struct {
	Enabled        bool   `mapstructure:"enabled"`
	Start          string `mapstructure:"start"` // "HH:MM"
	End            string `mapstructure:"end"`   // "HH:MM"
	StricterLimits bool   `mapstructure:"stricter_limits"`
}

// TrackerConfig holds polling behavior configuration.
type TrackerConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	IdleThreshold time.Duration `mapstructure:"idle_threshold"`
}

// NotifyConfig holds notification configuration.
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WebConfig holds web server configuration.
type WebConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SystemConfig holds resolved paths for the config file, database, event
// logs, daemon log and PID file.
type SystemConfig struct {
	ConfigPath  string
	DBPath      string
	EventLogDir string
	LogPath     string
	PIDFile     string
}

const (
	minPollInterval = 1 * time.Second
	maxPollInterval = 5 * time.Minute
)

// Default returns a Config with the default tracked sites and settings.
func Default() *Config {
	return &Config{
		Sites: map[string]SiteLimits{
			"youtube.com":  {DailyLimit: 60, NudgeInterval: 15},
			"reddit.com":   {DailyLimit: 30, NudgeInterval: 10},
			"twitter.com":  {DailyLimit: 30, NudgeInterval: 10},
			"facebook.com": {DailyLimit: 30, NudgeInterval: 10},
		},
		WorkHours: WorkHours{
			Enabled:        true,
			Start:          "09:00",
			End:            "17:00",
			StricterLimits: true,
		},
		Tracker: TrackerConfig{
			PollInterval:  2 * time.Second,
			IdleThreshold: 5 * time.Minute,
		},
		Notify: NotifyConfig{Enabled: true},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(),
		},
	}
}

// DefaultPaths resolves the XDG paths for all on-disk artifacts.
func DefaultPaths() (SystemConfig, error) {
	configPath, err := xdg.ConfigFile(filepath.Join(appDir, "config.json"))
	if err != nil {
		return SystemConfig{}, fmt.Errorf("resolving config path: %w", err)
	}

	dataDir, err := xdg.DataFile(appDir)
	if err != nil {
		return SystemConfig{}, fmt.Errorf("resolving data dir: %w", err)
	}

	return SystemConfig{
		ConfigPath:  configPath,
		DBPath:      filepath.Join(dataDir, "scrollguard.db"),
		EventLogDir: filepath.Join(dataDir, "logs"),
		LogPath:     filepath.Join(dataDir, "scrollguard.log"),
		PIDFile:     fmt.Sprintf("/tmp/scrollguard-%d.pid", os.Getuid()),
	}, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return fmt.Errorf("no tracked sites configured")
	}

	for site, limits := range c.Sites {
		if strings.TrimSpace(site) == "" {
			return fmt.Errorf("tracked site with empty id")
		}
		if limits.DailyLimit <= 0 {
			return fmt.Errorf("site %q: daily_limit must be positive, got %d", site, limits.DailyLimit)
		}
		if limits.NudgeInterval <= 0 {
			return fmt.Errorf("site %q: nudge_interval must be positive, got %d", site, limits.NudgeInterval)
		}
	}

	if c.Tracker.PollInterval < minPollInterval || c.Tracker.PollInterval > maxPollInterval {
		return fmt.Errorf("poll interval must be between %v and %v, got %v",
			minPollInterval, maxPollInterval, c.Tracker.PollInterval)
	}

	if c.Tracker.IdleThreshold < 0 {
		return fmt.Errorf("idle threshold cannot be negative")
	}

	if c.WorkHours.Enabled {
		if _, err := parseClock(c.WorkHours.Start); err != nil {
			return fmt.Errorf("work_hours.start: %w", err)
		}
		if _, err := parseClock(c.WorkHours.End); err != nil {
			return fmt.Errorf("work_hours.end: %w", err)
		}
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	return nil
}

// LimitsFor returns the effective limits for a site at the given time.
// Inside the work-hours window with stricter_limits on, the daily limit is
// halved (minimum one minute).
func (c *Config) LimitsFor(site string, now time.Time) (SiteLimits, bool) {
	limits, ok := c.Sites[site]
	if !ok {
		return SiteLimits{}, false
	}

	if c.WorkHours.Enabled && c.WorkHours.StricterLimits && c.WorkHours.within(now) {
		limits.DailyLimit /= 2
		if limits.DailyLimit < 1 {
			limits.DailyLimit = 1
		}
	}

	return limits, true
}

// within reports whether now falls inside [Start, End). Malformed bounds
// are rejected at validation time; here they disable the window.
func (w WorkHours) within(now time.Time) bool {
	start, err := parseClock(w.Start)
	if err != nil {
		return false
	}

	end, err := parseClock(w.End)
	if err != nil {
		return false
	}

	minute := now.Hour()*60 + now.Minute()

	return minute >= start && minute < end
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour*60 + minute, nil
}
