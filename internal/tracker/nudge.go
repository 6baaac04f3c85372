package tracker

import (
	"fmt"
	"time"

	"scrollguard/internal/config"
	"scrollguard/internal/models"
)

// NudgeState tracks when the user was last nudged within the current
// session. It is reset whenever a new session starts, so a fresh session
// never inherits an old nudge time.
type NudgeState struct {
	lastNudge time.Time
	nudged    bool
}

// Reset clears the nudge history for a new session.
func (s *NudgeState) Reset() {
	s.lastNudge = time.Time{}
	s.nudged = false
}

// Evaluate decides whether a nudge or block event fires this poll cycle.
// It is called only while a session is ongoing. elapsed is the current
// session's length; priorToday is the accumulated total for the site from
// earlier sessions today, so the live total seen by the user includes the
// session in progress.
//
// Precedence: a hard block wins over the nudge cadence and deliberately
// re-fires every cycle while the limit stays exceeded, without touching the
// last-nudge time. A nudge fires only when the session has lasted at least
// one nudge interval AND at least one interval has passed since the previous
// nudge, which prevents both nudging on arrival and repeat-nudging faster
// than the configured cadence.
func Evaluate(
	site string,
	elapsed time.Duration,
	priorToday time.Duration,
	limits config.SiteLimits,
	state *NudgeState,
	now time.Time,
) *models.NudgeEvent {
	sessionMinutes := elapsed.Minutes()
	totalToday := priorToday.Minutes() + sessionMinutes
	limit := float64(limits.DailyLimit)

	if totalToday >= limit && limits.HardBlock {
		return &models.NudgeEvent{
			Type:           models.EventBlock,
			Severity:       models.SeverityWarning,
			Site:           site,
			SessionMinutes: sessionMinutes,
			TotalMinutes:   totalToday,
			LimitMinutes:   limits.DailyLimit,
			Message: fmt.Sprintf(
				"Daily limit reached for %s. You've spent %.0f/%d minutes today. Time to get back to work.",
				site, totalToday, limits.DailyLimit,
			),
		}
	}

	interval := float64(limits.NudgeInterval)

	if sessionMinutes < interval {
		return nil
	}

	if state.nudged && now.Sub(state.lastNudge).Minutes() < interval {
		return nil
	}

	state.lastNudge = now
	state.nudged = true

	evt := &models.NudgeEvent{
		Type:           models.EventNudge,
		Site:           site,
		SessionMinutes: sessionMinutes,
		TotalMinutes:   totalToday,
		LimitMinutes:   limits.DailyLimit,
	}

	remaining := limit - totalToday

	switch {
	case remaining <= 0:
		evt.Severity = models.SeverityWarning
		evt.Message = fmt.Sprintf(
			"You've exceeded your daily limit on %s. Time today: %.0f minutes, limit: %d minutes. Maybe it's time for a break?",
			site, totalToday, limits.DailyLimit,
		)
	case remaining <= 10:
		evt.Severity = models.SeverityWarning
		evt.Message = fmt.Sprintf(
			"Running low on time for %s. Time remaining: %.0f minutes, current session: %.0f minutes.",
			site, remaining, sessionMinutes,
		)
	default:
		evt.Severity = models.SeverityInfo
		evt.Message = fmt.Sprintf(
			"Friendly reminder: you've been on %s for %.0f minutes. Time remaining today: %.0f minutes.",
			site, sessionMinutes, remaining,
		)
	}

	return evt
}
