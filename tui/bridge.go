// ABOUTME: Bridge connecting a stream session to the Bubble Tea message loop.
// ABOUTME: Defines the Controller the app drives, and tea.Cmd factories for snapshot delivery and ticks.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/streamconsole/console"
)

// Controller is the session surface the TUI needs. *console.Session implements it.
type Controller interface {
	Start(prompt string) bool
	Stop()
	Clear()
	Snapshot() console.Snapshot
	Subscribe() (<-chan console.Snapshot, func())
}

var _ Controller = (*console.Session)(nil)

// WaitForSnapshotCmd returns a tea.Cmd that blocks on the subscription and
// sends the next SnapshotMsg, or SessionClosedMsg once the channel closes.
func WaitForSnapshotCmd(updates <-chan console.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return SessionClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
func TickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
