// ABOUTME: Session status values and their display label and category.
// ABOUTME: Upstream may send any status string; unknown values display raw in the idle category.
package console

// Status is the current lifecycle phase of a Session. Values outside the
// known set come verbatim from upstream "state" fields.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusStreaming  Status = "streaming"
	StatusWorking    Status = "working"
	StatusSubmitted  Status = "submitted"
	StatusCompleted  Status = "completed"
	StatusStopped    Status = "stopped"
	StatusError      Status = "error"
)

// Category is the coarse display class of a Status.
type Category string

const (
	CategoryIdle  Category = "idle"
	CategoryLive  Category = "live"
	CategoryDone  Category = "done"
	CategoryError Category = "error"
)

var statusLabels = map[Status]string{
	StatusIdle:       "Idle",
	StatusConnecting: "Connecting",
	StatusStreaming:  "Streaming",
	StatusWorking:    "Working",
	StatusSubmitted:  "Submitted",
	StatusCompleted:  "Completed",
	StatusStopped:    "Stopped",
	StatusError:      "Error",
}

var statusCategories = map[Status]Category{
	StatusIdle:       CategoryIdle,
	StatusConnecting: CategoryLive,
	StatusStreaming:  CategoryLive,
	StatusWorking:    CategoryLive,
	StatusSubmitted:  CategoryLive,
	StatusCompleted:  CategoryDone,
	StatusStopped:    CategoryIdle,
	StatusError:      CategoryError,
}

// Known reports whether s is one of the enumerated statuses.
func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable label, or the raw value for unknown statuses.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Category returns the display category; unknown statuses are idle.
func (s Status) Category() Category {
	if c, ok := statusCategories[s]; ok {
		return c
	}
	return CategoryIdle
}
