// Package tray provides a system tray menu for running the emote reactor
// without a window.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onDebug func(enabled bool)
	onQuit  func()
	debug   bool
	current string
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuDebug   *systray.MenuItem
	menuCurrent *systray.MenuItem
}

// New creates a new Tray instance with the given initial debug overlay state.
func New(debug bool) *Tray {
	return &Tray{
		debug:   debug,
		current: "neutral",
	}
}

// OnDebug sets the callback function to be called when the debug overlay is toggled.
func (t *Tray) OnDebug(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDebug = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Emote Reactor")
	systray.SetTooltip("Clash Royale Emote Reactor")

	t.mu.Lock()
	t.menuDebug = systray.AddMenuItem(debugTitle(t.debug), "Toggle the debug overlay")
	systray.AddSeparator()

	t.menuCurrent = systray.AddMenuItem(currentTitle(t.current), "Emote currently shown")
	t.menuCurrent.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuQuit := systray.AddMenuItem("Quit", "Quit Emote Reactor")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuDebug.ClickedCh:
				t.handleDebug()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleDebug handles the debug menu item click.
func (t *Tray) handleDebug() {
	t.mu.Lock()
	t.debug = !t.debug
	enabled := t.debug

	if t.menuDebug != nil {
		t.menuDebug.SetTitle(debugTitle(enabled))
	}

	callback := t.onDebug
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetCurrent updates the current emote line in the menu.
func (t *Tray) SetCurrent(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = label
	if t.menuCurrent != nil {
		t.menuCurrent.SetTitle(currentTitle(label))
	}
}

// Current returns the emote last passed to SetCurrent.
func (t *Tray) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// IsDebug returns the current debug overlay state.
func (t *Tray) IsDebug() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.debug
}

func debugTitle(enabled bool) string {
	if enabled {
		return "● Debug overlay"
	}
	return "○ Debug overlay"
}

func currentTitle(label string) string {
	if label == "" {
		label = "none"
	}
	return "Current: " + label
}
