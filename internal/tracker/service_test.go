package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"scrollguard/internal/config"
	"scrollguard/internal/models"
	"scrollguard/pkg/window"
)

type fakeDetector struct {
	mu    sync.Mutex
	title string
	idle  window.IdleInfo
}

func (d *fakeDetector) setTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

func (d *fakeDetector) GetFocusedWindow() (*window.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.title == "" {
		return nil, errors.New("no focused window")
	}
	return &window.WindowInfo{Title: d.title, DisplayServer: "x11"}, nil
}

func (d *fakeDetector) GetIdleInfo() (*window.IdleInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idle := d.idle
	return &idle, nil
}

func (d *fakeDetector) IsAvailable() bool        { return true }
func (d *fakeDetector) GetDisplayServer() string { return "x11" }
func (d *fakeDetector) Close() error             { return nil }

type memStore struct {
	mu        sync.Mutex
	err       error
	sessions  []*models.SessionRecord
	nudges    []*models.NudgeRecord
	summaries []*models.SummaryRecord
}

func (s *memStore) RecordSession(rec *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sessions = append(s.sessions, rec)
	return nil
}

func (s *memStore) RecordNudge(rec *models.NudgeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.nudges = append(s.nudges, rec)
	return nil
}

func (s *memStore) RecordSummary(recs []*models.SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.summaries = append(s.summaries, recs...)
	return nil
}

type memEvents struct {
	mu        sync.Mutex
	err       error
	sessions  []*models.Session
	nudges    []*models.NudgeEvent
	summaries []models.DailySummary
}

func (e *memEvents) AppendSession(sess *models.Session) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	e.sessions = append(e.sessions, sess)
	return nil
}

func (e *memEvents) AppendNudge(evt *models.NudgeEvent, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	e.nudges = append(e.nudges, evt)
	return nil
}

func (e *memEvents) AppendSummary(summary models.DailySummary, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	e.summaries = append(e.summaries, summary)
	return nil
}

type memNotifier struct {
	mu        sync.Mutex
	nudges    []*models.NudgeEvent
	summaries []models.DailySummary
}

func (n *memNotifier) Nudge(evt *models.NudgeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nudges = append(n.nudges, evt)
	return nil
}

func (n *memNotifier) Summary(summary models.DailySummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.summaries = append(n.summaries, summary)
	return nil
}

func serviceConfig() *config.Config {
	cfg := config.Default()
	cfg.WorkHours.Enabled = false
	return cfg
}

func newTestService(cfg *config.Config) (*Service, *fakeDetector, *memStore, *memEvents, *memNotifier) {
	det := &fakeDetector{}
	store := &memStore{}
	events := &memEvents{}
	notifier := &memNotifier{}

	svc := NewService(cfg, det, store, events, notifier, zerolog.Nop())
	return svc, det, store, events, notifier
}

func TestServiceRecordsSessionOnSwitch(t *testing.T) {
	svc, det, store, events, _ := newTestService(serviceConfig())

	det.setTitle("Watch Later - YouTube - Google Chrome")
	svc.poll(at(0))
	svc.poll(at(5))

	det.setTitle("r/golang - Reddit - Google Chrome")
	svc.poll(at(10))

	if len(store.sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(store.sessions))
	}

	rec := store.sessions[0]
	if rec.Site != "youtube.com" {
		t.Errorf("Site = %q, want youtube.com", rec.Site)
	}
	if rec.DurationSeconds != 600 {
		t.Errorf("DurationSeconds = %d, want 600", rec.DurationSeconds)
	}
	if rec.Date != "2025-06-02" {
		t.Errorf("Date = %q, want 2025-06-02", rec.Date)
	}

	if len(events.sessions) != 1 {
		t.Errorf("event log got %d sessions, want 1", len(events.sessions))
	}

	// The reddit session just opened, so the live summary shows the closed
	// youtube time plus a zero-length reddit entry (omitted while zero).
	summary := svc.Summary(at(10))
	if len(summary.Sites) != 1 || summary.Sites[0].Site != "youtube.com" {
		t.Fatalf("Summary() = %+v, want only youtube.com", summary.Sites)
	}
	if summary.Sites[0].Minutes != 10 {
		t.Errorf("youtube minutes = %v, want 10", summary.Sites[0].Minutes)
	}
}

func TestServiceSummaryIncludesOpenSession(t *testing.T) {
	svc, det, _, _, _ := newTestService(serviceConfig())

	det.setTitle("YouTube - Mozilla Firefox")
	svc.poll(at(0))

	summary := svc.Summary(at(7))
	if len(summary.Sites) != 1 {
		t.Fatalf("got %d sites, want 1", len(summary.Sites))
	}
	if got := summary.Sites[0].Minutes; got != 7 {
		t.Errorf("live minutes = %v, want 7", got)
	}

	site, start, ok := svc.CurrentSession()
	if !ok || site != "youtube.com" || !start.Equal(at(0)) {
		t.Errorf("CurrentSession() = %q, %v, %v", site, start, ok)
	}
}

func TestServiceEmitsNudge(t *testing.T) {
	svc, det, store, events, notifier := newTestService(serviceConfig())

	det.setTitle("YouTube - Google Chrome")
	svc.poll(at(0))
	svc.poll(at(14)) // below the 15-minute interval

	if len(store.nudges) != 0 {
		t.Fatalf("nudge fired before the interval: %+v", store.nudges)
	}

	svc.poll(at(15))

	if len(store.nudges) != 1 {
		t.Fatalf("stored %d nudges, want 1", len(store.nudges))
	}
	if len(events.nudges) != 1 {
		t.Errorf("event log got %d nudges, want 1", len(events.nudges))
	}
	if len(notifier.nudges) != 1 {
		t.Fatalf("notifier got %d nudges, want 1", len(notifier.nudges))
	}

	evt := notifier.nudges[0]
	if evt.Type != models.EventNudge || evt.Severity != models.SeverityInfo {
		t.Errorf("got %s/%s, want NUDGE/info", evt.Type, evt.Severity)
	}
}

func TestServiceDisabledNotificationsStillRecorded(t *testing.T) {
	cfg := serviceConfig()
	cfg.Notify.Enabled = false

	svc, det, store, _, notifier := newTestService(cfg)

	det.setTitle("YouTube - Google Chrome")
	svc.poll(at(0))
	svc.poll(at(15))

	if len(store.nudges) != 1 {
		t.Fatalf("stored %d nudges, want 1", len(store.nudges))
	}
	if len(notifier.nudges) != 0 {
		t.Errorf("notifier called with notifications disabled")
	}
}

func TestServiceIdleClosesSession(t *testing.T) {
	cfg := serviceConfig()
	svc, det, store, _, _ := newTestService(cfg)

	det.setTitle("YouTube - Google Chrome")
	svc.poll(at(0))

	det.mu.Lock()
	det.idle.IdleTime = cfg.Tracker.IdleThreshold + time.Minute
	det.mu.Unlock()

	svc.poll(at(5))

	if len(store.sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(store.sessions))
	}
	if store.sessions[0].DurationSeconds != 300 {
		t.Errorf("DurationSeconds = %d, want 300", store.sessions[0].DurationSeconds)
	}
}

func TestServiceLockedClosesSession(t *testing.T) {
	svc, det, store, _, _ := newTestService(serviceConfig())

	det.setTitle("YouTube - Google Chrome")
	svc.poll(at(0))

	det.mu.Lock()
	det.idle.IsLocked = true
	det.mu.Unlock()

	svc.poll(at(3))

	if len(store.sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(store.sessions))
	}
}

// A failing store must not abort the loop or corrupt the accumulated totals.
func TestServiceStoreFailureDoesNotCorruptState(t *testing.T) {
	svc, det, store, _, _ := newTestService(serviceConfig())
	store.err = errors.New("disk full")

	det.setTitle("YouTube - Google Chrome")
	svc.poll(at(0))

	det.setTitle("")
	svc.poll(at(10))

	// The write failed but the in-memory total survived.
	summary := svc.Summary(at(10))
	if len(summary.Sites) != 1 || summary.Sites[0].Minutes != 10 {
		t.Fatalf("Summary() = %+v, want youtube.com at 10 minutes", summary.Sites)
	}

	// And the loop keeps polling normally afterwards.
	det.setTitle("YouTube - Google Chrome")
	svc.poll(at(11))

	if _, _, ok := svc.CurrentSession(); !ok {
		t.Error("no session open after store failure")
	}
}

// Web handlers read the running flag, the live summary and the current
// session from HTTP goroutines while the polling loop runs; none of those
// reads may race the loop.
func TestServiceConcurrentStatusReads(t *testing.T) {
	cfg := serviceConfig()
	svc, det, _, _, _ := newTestService(cfg)

	det.setTitle("YouTube - Google Chrome")

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(context.Background())
	}()

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 200; j++ {
				svc.IsRunning()
				svc.Summary(time.Now())
				svc.CurrentSession()
			}
		}()
	}

	wg.Wait()
	svc.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestServiceStartStopFlushesOpenSession(t *testing.T) {
	cfg := serviceConfig()
	svc, det, store, events, notifier := newTestService(cfg)

	det.setTitle("YouTube - Google Chrome")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	// Give the initial poll a moment to open the session.
	time.Sleep(50 * time.Millisecond)
	svc.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if svc.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	if len(store.sessions) != 1 {
		t.Errorf("stored %d sessions, want 1 flushed at shutdown", len(store.sessions))
	}
	if len(events.summaries) != 1 {
		t.Errorf("event log got %d summaries, want 1", len(events.summaries))
	}
	if len(notifier.summaries) != 1 {
		t.Errorf("notifier got %d summaries, want 1", len(notifier.summaries))
	}
}
