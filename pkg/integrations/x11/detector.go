// Package x11 implements window detection over the X protocol.
package x11

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"

	"scrollguard/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// screen lockers recognized by process name
var lockers = []string{
	"gnome-screensaver-dialog",
	"kscreenlocker",
	"i3lock",
	"slock",
	"xscreensaver",
	"xsecurelock",
}

// Detector implements window.Detector for X11 using a persistent XGB
// connection.
type Detector struct {
	conn           *xgb.Conn
	root           xproto.Window
	atoms          map[string]xproto.Atom
	hasScreensaver bool
}

// NewDetector connects to the X server and interns the atoms the detector
// needs.
func NewDetector() (*Detector, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connecting to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	d := &Detector{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("interning atom %s: %w", name, err)
		}

		d.atoms[name] = reply.Atom
	}

	// MIT-SCREEN-SAVER gives idle time without shelling out; absence just
	// disables idle detection.
	if err := screensaver.Init(conn); err == nil {
		d.hasScreensaver = true
	}

	return d, nil
}

// IsAvailable checks if X11 detection is available.
func (d *Detector) IsAvailable() bool {
	return d.conn != nil
}

// GetDisplayServer returns "x11".
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

// Close shuts down the X connection.
func (d *Detector) Close() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}

	return nil
}

// GetFocusedWindow returns the title and class of the active window.
func (d *Detector) GetFocusedWindow() (*window.WindowInfo, error) {
	win, err := d.activeWindow()
	if err != nil {
		return nil, err
	}

	title := d.windowName(win)
	if title == "" {
		return nil, fmt.Errorf("active window has no name")
	}

	return &window.WindowInfo{
		Title:         title,
		AppName:       d.windowClass(win),
		DisplayServer: "x11",
	}, nil
}

// GetIdleInfo returns the time since last user input and the lock state.
func (d *Detector) GetIdleInfo() (*window.IdleInfo, error) {
	info := &window.IdleInfo{IsLocked: screenLocked()}

	if d.hasScreensaver {
		reply, err := screensaver.QueryInfo(d.conn, xproto.Drawable(d.root)).Reply()
		if err != nil {
			return nil, fmt.Errorf("querying screensaver info: %w", err)
		}

		info.IdleTime = time.Duration(reply.MsSinceUserInput) * time.Millisecond
	}

	return info, nil
}

// activeWindow finds the focused top-level window. EWMH property first,
// input focus as fallback; a few retries paper over focus races during
// window switches.
func (d *Detector) activeWindow() (xproto.Window, error) {
	for i := 0; i < 5; i++ {
		win := d.activeWindowFromProperty()
		if win != 0 && d.hasName(win) {
			return win, nil
		}

		win = d.activeWindowFromInputFocus()
		if win != 0 && win != d.root {
			top := d.topLevelParent(win)
			if top != 0 && d.hasName(top) {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	return 0, fmt.Errorf("no active window found")
}

func (d *Detector) activeWindowFromProperty() xproto.Window {
	data, err := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil || len(data) < 4 {
		return 0
	}

	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (d *Detector) activeWindowFromInputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return 0
	}

	return reply.Focus
}

func (d *Detector) topLevelParent(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(d.conn, win).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return win
		}

		win = reply.Parent
	}
}

func (d *Detector) hasName(win xproto.Window) bool {
	data, _ := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 1)
	if len(data) > 0 {
		return true
	}

	data, _ = d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 1)

	return len(data) > 0
}

func (d *Detector) windowName(win xproto.Window) string {
	data, err := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

// windowClass reads WM_CLASS, which is two null-terminated strings; the
// second (the class) is the stable application identifier.
func (d *Detector) windowClass(win xproto.Window) string {
	data, err := d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return ""
	}

	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) == 0 {
		return ""
	}

	return parts[len(parts)-1]
}

func (d *Detector) property(win xproto.Window, atom, typ xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, typ, 0, length).Reply()
	if err != nil {
		return nil, err
	}

	return reply.Value, nil
}

// screenLocked checks for a known screen locker process.
func screenLocked() bool {
	for _, locker := range lockers {
		if err := exec.Command("pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}

	return false
}

// Display reports whether an X display is reachable in this session.
func Display() bool {
	return os.Getenv("DISPLAY") != ""
}
