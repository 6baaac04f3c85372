// Package tracker contains the session state machine, the daily
// accumulator, the nudge decision engine and the polling service that
// drives them.
package tracker

import (
	"time"

	"scrollguard/internal/models"
)

// SessionTracker turns a stream of per-poll site observations into discrete
// sessions. At most one session is open at any instant; every opened session
// is closed exactly once, either on a transition away from its site or by an
// explicit Flush at shutdown.
type SessionTracker struct {
	currentSite  string
	sessionStart time.Time
}

// Transition describes what one observation did to the session state.
type Transition struct {
	// Closed is the session that ended this cycle, nil otherwise.
	Closed *models.Session

	// Started reports that a new session opened this cycle.
	Started bool

	// Ongoing reports that the current session continued with no
	// transition. Only then is the nudge engine consulted.
	Ongoing bool
}

// NewSessionTracker returns a tracker with no open session.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{}
}

// Observe feeds one detection result into the state machine. site is the
// detected tracked site id, or "" when nothing tracked is in the foreground.
func (t *SessionTracker) Observe(site string, now time.Time) Transition {
	// Nothing open: maybe start.
	if t.currentSite == "" {
		if site == "" {
			return Transition{}
		}

		t.open(site, now)

		return Transition{Started: true}
	}

	// Same site: session continues.
	if site == t.currentSite {
		return Transition{Ongoing: true}
	}

	// Switched away, possibly to another tracked site.
	closed := t.close(now)

	tr := Transition{Closed: closed}
	if site != "" {
		t.open(site, now)
		tr.Started = true
	}

	return tr
}

// Flush closes any open session. Used at shutdown so no session is
// silently dropped.
func (t *SessionTracker) Flush(now time.Time) *models.Session {
	if t.currentSite == "" {
		return nil
	}

	return t.close(now)
}

// Current returns the open session's site and start time, if any.
func (t *SessionTracker) Current() (site string, start time.Time, ok bool) {
	if t.currentSite == "" {
		return "", time.Time{}, false
	}

	return t.currentSite, t.sessionStart, true
}

// Elapsed returns how long the open session has been running, clamped to
// zero against backwards clock jumps.
func (t *SessionTracker) Elapsed(now time.Time) time.Duration {
	if t.currentSite == "" {
		return 0
	}

	d := now.Sub(t.sessionStart)
	if d < 0 {
		return 0
	}

	return d
}

func (t *SessionTracker) open(site string, now time.Time) {
	t.currentSite = site
	t.sessionStart = now
}

func (t *SessionTracker) close(now time.Time) *models.Session {
	end := now
	if end.Before(t.sessionStart) {
		end = t.sessionStart
	}

	sess := &models.Session{
		Site:      t.currentSite,
		StartTime: t.sessionStart,
		EndTime:   end,
	}

	t.currentSite = ""
	t.sessionStart = time.Time{}

	return sess
}
