package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// keyDelim separates nested viper keys. It must not be "." because tracked
// site ids contain dots: with the default delimiter viper flattens
// "tracked_sites.youtube.com.daily_limit" and re-nests it on the next read,
// splitting the site id apart.
const keyDelim = "::"

// Viper key constants for everything outside the tracked_sites map.
const (
	keyWorkHoursEnabled  = "work_hours" + keyDelim + "enabled"
	keyWorkHoursStart    = "work_hours" + keyDelim + "start"
	keyWorkHoursEnd      = "work_hours" + keyDelim + "end"
	keyWorkHoursStricter = "work_hours" + keyDelim + "stricter_limits"
	keyPollInterval      = "tracker" + keyDelim + "poll_interval"
	keyIdleThreshold     = "tracker" + keyDelim + "idle_threshold"
	keyNotifyEnabled     = "notifications" + keyDelim + "enabled"
	keyWebHost           = "web" + keyDelim + "host"
	keyWebPort           = "web" + keyDelim + "port"
)

const envPrefix = "SCROLLGUARD"

// Load reads the config file at paths.ConfigPath, writing a default one when
// it does not exist. A file that exists but cannot be parsed or validated is
// a startup error, not a fallback to defaults.
func Load(paths SystemConfig) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelim))

	v.SetConfigFile(paths.ConfigPath)
	v.SetConfigType("json")

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelim, "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", paths.ConfigPath, err)
		}

		// No config file yet: seed the default site set and persist the
		// whole thing so the user has something to edit.
		seedDefaultSites(v)

		if err := v.WriteConfigAs(paths.ConfigPath); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.System = paths

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", paths.ConfigPath, err)
	}

	return cfg, nil
}

// setDefaults registers defaults for all scalar settings. The tracked_sites
// map is deliberately not defaulted here: when a config file exists, the set
// of tracked sites must come from that file alone rather than being merged
// with the built-in list.
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault(keyWorkHoursEnabled, def.WorkHours.Enabled)
	v.SetDefault(keyWorkHoursStart, def.WorkHours.Start)
	v.SetDefault(keyWorkHoursEnd, def.WorkHours.End)
	v.SetDefault(keyWorkHoursStricter, def.WorkHours.StricterLimits)
	v.SetDefault(keyPollInterval, def.Tracker.PollInterval.String())
	v.SetDefault(keyIdleThreshold, def.Tracker.IdleThreshold.String())
	v.SetDefault(keyNotifyEnabled, def.Notify.Enabled)
	v.SetDefault(keyWebHost, def.Web.Host)
	v.SetDefault(keyWebPort, def.Web.Port)
}

func seedDefaultSites(v *viper.Viper) {
	def := Default()

	sites := make(map[string]map[string]any, len(def.Sites))
	for site, limits := range def.Sites {
		sites[site] = map[string]any{
			"daily_limit":    limits.DailyLimit,
			"nudge_interval": limits.NudgeInterval,
			"hard_block":     limits.HardBlock,
		}
	}

	v.Set("tracked_sites", sites)
}
