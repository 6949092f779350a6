// ABOUTME: Recorder receives session lifecycle notifications for metrics.
// ABOUTME: Calls happen on the session actor goroutine and must not block.
package console

// Recorder observes session activity.
type Recorder interface {
	StreamStarted()
	EventAppended(evt Event)
	MessageDiscarded(reason string)
	StreamEnded(status Status)
}

type nopRecorder struct{}

func (nopRecorder) StreamStarted()          {}
func (nopRecorder) EventAppended(Event)     {}
func (nopRecorder) MessageDiscarded(string) {}
func (nopRecorder) StreamEnded(Status)      {}
