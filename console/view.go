// ABOUTME: View projection: derives every displayed value from a Snapshot without touching session state.
// ABOUTME: Chooses per-event rendering mode with the markdown heuristic and renders markup through the safe renderer.
package console

import (
	"html/template"
	"time"

	"github.com/2389-research/streamconsole/render"
)

// RenderMode selects how an event line is displayed.
type RenderMode string

const (
	ModeMarkdown RenderMode = "markdown"
	ModeText     RenderMode = "text"
)

// EventView is one displayed event.
type EventView struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	State     string        `json:"state,omitempty"`
	Line      string        `json:"line"`
	Timestamp string        `json:"ts"`
	Clock     string        `json:"clock"`
	Mode      RenderMode    `json:"mode"`
	HTML      template.HTML `json:"html,omitempty"`
}

// ViewModel holds everything a console surface displays.
type ViewModel struct {
	StreamID     string        `json:"stream_id,omitempty"`
	Prompt       string        `json:"prompt,omitempty"`
	Status       Status        `json:"status"`
	StatusLabel  string        `json:"status_label"`
	StatusClass  Category      `json:"status_class"`
	Live         bool          `json:"live"`
	ErrorMessage string        `json:"error_message,omitempty"`
	LatestText   string        `json:"latest_text"`
	LatestHTML   template.HTML `json:"latest_html"`
	Events       []EventView   `json:"events"`
	EventCount   int           `json:"event_count"`
}

// Projector builds ViewModels. The zero value renders with render.Markdown
// and formats clocks in the local time zone.
type Projector struct {
	Markdown render.MarkupFunc
	Location *time.Location
}

// Project builds the ViewModel for snap with the default Projector.
func Project(snap Snapshot) ViewModel {
	var p Projector
	return p.Project(snap)
}

// Project builds the ViewModel for snap.
func (p *Projector) Project(snap Snapshot) ViewModel {
	markdown := p.Markdown
	if markdown == nil {
		markdown = render.Markdown
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}

	vm := ViewModel{
		StreamID:     snap.StreamID,
		Prompt:       snap.Prompt,
		Status:       snap.Status,
		StatusLabel:  snap.Status.Label(),
		StatusClass:  snap.Status.Category(),
		Live:         snap.Live,
		ErrorMessage: snap.ErrorMessage,
		LatestText:   snap.LatestText,
		LatestHTML:   markdown(snap.LatestText),
		Events:       make([]EventView, 0, len(snap.Events)),
		EventCount:   len(snap.Events),
	}

	for _, evt := range snap.Events {
		line := EventLine(evt)
		ev := EventView{
			ID:        evt.ID,
			Type:      evt.Type,
			State:     evt.State,
			Line:      line,
			Timestamp: evt.Timestamp,
			Clock:     clock(evt.Timestamp, loc),
			Mode:      EventMode(evt),
		}
		if ev.Mode == ModeMarkdown {
			ev.HTML = markdown(line)
		}
		vm.Events = append(vm.Events, ev)
	}
	return vm
}

// EventLine is the text shown for an event: its text, else its state, else "Update".
func EventLine(evt Event) string {
	switch {
	case evt.Text != "":
		return evt.Text
	case evt.State != "":
		return "State: " + evt.State
	default:
		return "Update"
	}
}

// EventMode renders "message" events whose line looks like markdown as
// markup; everything else is literal text.
func EventMode(evt Event) RenderMode {
	if evt.Type == "message" && render.LooksLikeMarkdown(EventLine(evt)) {
		return ModeMarkdown
	}
	return ModeText
}

func clock(ts string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.In(loc).Format("15:04:05")
}
