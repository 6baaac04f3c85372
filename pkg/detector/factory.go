// Package detector selects a window detection backend for the current
// session.
package detector

import (
	"fmt"
	"os"

	"scrollguard/pkg/integrations/x11"
	"scrollguard/pkg/window"
)

// New returns the detector for the current display environment. XWayland
// exposes an X display, so the x11 backend also covers most Wayland
// desktops for foreground-title purposes.
func New() (window.Detector, error) {
	if x11.Display() {
		return x11.NewDetector()
	}

	return nil, fmt.Errorf("no display detected (session type %q)", DetectDisplayServer())
}

// DetectDisplayServer reports the session's display server from the
// environment.
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
