package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"scrollguard/internal/config"
	"scrollguard/internal/models"
	"scrollguard/internal/sites"
	"scrollguard/pkg/window"
)

// Recorder persists completed sessions, emitted nudges and daily summaries.
type Recorder interface {
	RecordSession(rec *models.SessionRecord) error
	RecordNudge(rec *models.NudgeRecord) error
	RecordSummary(recs []*models.SummaryRecord) error
}

// EventLog appends structured records to the append-only event log.
type EventLog interface {
	AppendSession(sess *models.Session) error
	AppendNudge(evt *models.NudgeEvent, now time.Time) error
	AppendSummary(summary models.DailySummary, now time.Time) error
}

// Notifier renders nudge/block/summary events to the user.
type Notifier interface {
	Nudge(evt *models.NudgeEvent) error
	Summary(summary models.DailySummary) error
}

// Service owns the polling loop. Each tick runs detect → observe → roll-in →
// evaluate sequentially; the session tracker and daily totals are the only
// shared mutable state and sit behind one mutex so Summary and shutdown see
// a consistent view. A failing collaborator (store, event log, notifier) is
// logged and never aborts the loop or touches core state.
type Service struct {
	cfg      *config.Config
	detector window.Detector
	matcher  *sites.Matcher
	recorder Recorder
	events   EventLog
	notifier Notifier
	logger   zerolog.Logger

	mu       sync.Mutex
	sessions *SessionTracker
	totals   *DayTotals
	nudge    NudgeState

	stopOnce sync.Once
	stopChan chan struct{}
	running  atomic.Bool
}

// NewService wires the polling service.
func NewService(
	cfg *config.Config,
	detector window.Detector,
	recorder Recorder,
	events EventLog,
	notifier Notifier,
	logger zerolog.Logger,
) *Service {
	siteIDs := make([]string, 0, len(cfg.Sites))
	for site := range cfg.Sites {
		siteIDs = append(siteIDs, site)
	}

	now := time.Now()

	return &Service{
		cfg:      cfg,
		detector: detector,
		matcher:  sites.NewMatcher(siteIDs),
		recorder: recorder,
		events:   events,
		notifier: notifier,
		logger:   logger.With().Str("component", "tracker").Logger(),
		sessions: NewSessionTracker(),
		totals:   NewDayTotals(now),
		stopChan: make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is cancelled or Stop is called,
// then flushes any open session and emits the final daily summary.
func (s *Service) Start(ctx context.Context) error {
	// running is read by web handlers on other goroutines.
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker is already running")
	}
	defer s.running.Store(false)

	s.logger.Info().
		Dur("poll_interval", s.cfg.Tracker.PollInterval).
		Int("tracked_sites", len(s.cfg.Sites)).
		Msg("starting tracker")

	ticker := time.NewTicker(s.cfg.Tracker.PollInterval)
	defer ticker.Stop()

	s.poll(time.Now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("tracker stopped by context")
			s.shutdown(time.Now())

			return ctx.Err()

		case <-s.stopChan:
			s.logger.Info().Msg("tracker stopped")
			s.shutdown(time.Now())

			return nil

		case now := <-ticker.C:
			s.poll(now)
		}
	}
}

// Stop signals the polling loop to exit after at most one in-flight poll.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// IsRunning reports whether the polling loop is active.
func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// Summary returns the live daily summary, including the elapsed time of any
// session still in progress.
func (s *Service) Summary(now time.Time) models.DailySummary {
	s.mu.Lock()
	totals := s.liveTotals(now)
	s.mu.Unlock()

	return BuildSummary(now, totals, s.cfg)
}

// CurrentSession returns the open session's site and start time, if any.
func (s *Service) CurrentSession() (site string, start time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Current()
}

// liveTotals merges the open session's elapsed time into a snapshot of the
// accumulated totals. Callers must hold s.mu.
func (s *Service) liveTotals(now time.Time) map[string]time.Duration {
	totals := s.totals.Snapshot(now)

	if site, _, ok := s.sessions.Current(); ok {
		totals[site] += s.sessions.Elapsed(now)
	}

	return totals
}

func (s *Service) poll(now time.Time) {
	site := s.detect()

	s.mu.Lock()

	tr := s.sessions.Observe(site, now)
	if tr.Started {
		s.nudge.Reset()
	}

	if tr.Closed != nil {
		s.totals.RollIn(now, tr.Closed)
	}

	var evt *models.NudgeEvent

	if tr.Ongoing {
		if limits, ok := s.cfg.LimitsFor(site, now); ok {
			elapsed := s.sessions.Elapsed(now)
			prior := s.totals.TotalFor(now, site)
			evt = Evaluate(site, elapsed, prior, limits, &s.nudge, now)
		}
	}

	s.mu.Unlock()

	if tr.Started {
		s.logger.Debug().Str("site", site).Msg("session started")
	}

	if tr.Closed != nil {
		s.emitSession(tr.Closed)
	}

	if evt != nil {
		s.emitNudge(evt, now)
	}
}

// detect maps the current foreground window to a tracked site id, or ""
// when nothing tracked is focused. Any detection failure means "no site";
// it is never an error for the loop.
func (s *Service) detect() string {
	idle, err := s.detector.GetIdleInfo()
	if err == nil && idle != nil {
		if idle.IsLocked {
			return ""
		}
		if s.cfg.Tracker.IdleThreshold > 0 && idle.IdleTime >= s.cfg.Tracker.IdleThreshold {
			return ""
		}
	}

	info, err := s.detector.GetFocusedWindow()
	if err != nil || info == nil {
		return ""
	}

	site, ok := s.matcher.Match(info.Title)
	if !ok {
		return ""
	}

	return site
}

func (s *Service) emitSession(sess *models.Session) {
	s.logger.Info().
		Str("site", sess.Site).
		Float64("minutes", sess.Duration().Minutes()).
		Msg("session ended")

	rec := &models.SessionRecord{
		Date:            models.DateOf(sess.EndTime),
		Site:            sess.Site,
		StartTime:       sess.StartTime,
		EndTime:         sess.EndTime,
		DurationSeconds: int64(sess.Duration().Seconds()),
	}

	if err := s.recorder.RecordSession(rec); err != nil {
		s.logger.Error().Err(err).Msg("failed to store session record")
	}

	if err := s.events.AppendSession(sess); err != nil {
		s.logger.Error().Err(err).Msg("failed to append session to event log")
	}
}

func (s *Service) emitNudge(evt *models.NudgeEvent, now time.Time) {
	s.logger.Info().
		Str("site", evt.Site).
		Str("type", string(evt.Type)).
		Str("severity", string(evt.Severity)).
		Float64("total_minutes", evt.TotalMinutes).
		Msg("nudge fired")

	rec := &models.NudgeRecord{
		Timestamp:      now,
		Date:           models.DateOf(now),
		Site:           evt.Site,
		Type:           string(evt.Type),
		Severity:       string(evt.Severity),
		SessionMinutes: evt.SessionMinutes,
		TotalMinutes:   evt.TotalMinutes,
		LimitMinutes:   evt.LimitMinutes,
	}

	if err := s.recorder.RecordNudge(rec); err != nil {
		s.logger.Error().Err(err).Msg("failed to store nudge record")
	}

	if err := s.events.AppendNudge(evt, now); err != nil {
		s.logger.Error().Err(err).Msg("failed to append nudge to event log")
	}

	if s.cfg.Notify.Enabled {
		if err := s.notifier.Nudge(evt); err != nil {
			s.logger.Error().Err(err).Msg("failed to deliver nudge notification")
		}
	}
}

// shutdown closes any open session and emits the final daily summary.
func (s *Service) shutdown(now time.Time) {
	s.mu.Lock()

	closed := s.sessions.Flush(now)
	if closed != nil {
		s.totals.RollIn(now, closed)
	}

	totals := s.liveTotals(now)

	s.mu.Unlock()

	if closed != nil {
		s.emitSession(closed)
	}

	summary := BuildSummary(now, totals, s.cfg)
	s.emitSummary(summary, now)
}

func (s *Service) emitSummary(summary models.DailySummary, now time.Time) {
	recs := make([]*models.SummaryRecord, 0, len(summary.Sites))
	for _, site := range summary.Sites {
		recs = append(recs, &models.SummaryRecord{
			Timestamp:    now,
			Date:         summary.Date,
			Site:         site.Site,
			Minutes:      site.Minutes,
			LimitMinutes: site.LimitMinutes,
			OverLimit:    site.OverLimit,
		})
	}

	if len(recs) > 0 {
		if err := s.recorder.RecordSummary(recs); err != nil {
			s.logger.Error().Err(err).Msg("failed to store daily summary")
		}
	}

	if err := s.events.AppendSummary(summary, now); err != nil {
		s.logger.Error().Err(err).Msg("failed to append summary to event log")
	}

	if s.cfg.Notify.Enabled {
		if err := s.notifier.Summary(summary); err != nil {
			s.logger.Error().Err(err).Msg("failed to deliver summary notification")
		}
	}
}
