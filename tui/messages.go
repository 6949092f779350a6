// ABOUTME: Bubble Tea message types used in the console message loop.
// ABOUTME: Each type wraps session notifications for the tea.Msg interface (which is interface{}).
package tui

import (
	"time"

	"github.com/2389-research/streamconsole/console"
)

// SnapshotMsg carries a session state change into the message loop.
type SnapshotMsg struct {
	Snapshot console.Snapshot
}

// SessionClosedMsg signals that the session was torn down and no more
// snapshots will arrive.
type SessionClosedMsg struct{}

// TickMsg is sent periodically to refresh the elapsed timer.
type TickMsg struct {
	Time time.Time
}
