// Package notify delivers desktop notifications for nudge, block and
// summary events, with a console echo fallback when the desktop
// notification fails. Delivery failures never propagate to the caller.
package notify

import (
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/pterm/pterm"

	"scrollguard/internal/models"
)

const appName = "ScrollGuard"

// Notifier sends desktop notifications via the system notification service.
type Notifier struct {
	icon string

	// send is swapped out in tests.
	send func(title, message, icon string) error
}

// New returns a Notifier backed by the desktop notification service.
func New() *Notifier {
	return &Notifier{send: beeep.Notify}
}

// Notify sends a desktop notification, echoing to the console when the
// desktop service is unavailable. It never returns an error to the caller.
func (n *Notifier) Notify(title, message string) {
	if err := n.send(title, message, n.icon); err != nil {
		pterm.Warning.Printfln("unable to display notification: %v", err)
		pterm.DefaultBox.WithTitle(title).Println(message)
	}
}

// Nudge renders a nudge or block event.
func (n *Notifier) Nudge(evt *models.NudgeEvent) error {
	n.Notify(nudgeTitle(evt), evt.Message)

	return nil
}

// Summary renders the end-of-day summary.
func (n *Notifier) Summary(summary models.DailySummary) error {
	n.Notify(appName+" - Daily Summary", SummaryBody(summary))

	return nil
}

// Startup announces that monitoring began.
func (n *Notifier) Startup() {
	n.Notify(appName+" Started", "Now monitoring your activity.")
}

func nudgeTitle(evt *models.NudgeEvent) string {
	if evt.Type == models.EventBlock {
		return appName + " - Blocked"
	}

	if evt.Severity == models.SeverityWarning {
		return appName + " - Warning"
	}

	return appName + " - Friendly Nudge"
}

// SummaryBody formats the per-site lines of a daily summary.
func SummaryBody(summary models.DailySummary) string {
	if len(summary.Sites) == 0 {
		return "No time tracked today. Great job staying focused!"
	}

	var b strings.Builder

	b.WriteString("Today's screen time:\n")

	for _, site := range summary.Sites {
		status := "ok"
		if site.OverLimit {
			status = "OVER"
		}

		fmt.Fprintf(&b, "[%s] %s: %.0f/%d min\n", status, site.Site, site.Minutes, site.LimitMinutes)
	}

	return strings.TrimRight(b.String(), "\n")
}
