package window

import "time"

// WindowInfo represents information about the currently focused window.
type WindowInfo struct {
	Title         string
	AppName       string
	DisplayServer string // "x11" for now
}

// IdleInfo represents system idle/lock state.
type IdleInfo struct {
	IdleTime time.Duration // time since last user input
	IsLocked bool
}

// Detector is the interface all window detection backends must satisfy.
// Detection is a best-effort probe: an error means "could not determine",
// which callers treat as no tracked site in the foreground.
type Detector interface {
	// GetFocusedWindow returns information about the currently focused window.
	GetFocusedWindow() (*WindowInfo, error)

	// GetIdleInfo returns the system idle/lock state.
	GetIdleInfo() (*IdleInfo, error)

	// IsAvailable checks if this detector can run on the current system.
	IsAvailable() bool

	// GetDisplayServer returns the display server type.
	GetDisplayServer() string

	// Close cleans up any resources used by the detector.
	Close() error
}
