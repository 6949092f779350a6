// ABOUTME: Stream Session: an actor goroutine that owns one console's state and its single transport handle.
// ABOUTME: User actions and transport notifications share one inbox and are applied strictly one at a time.
package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/2389-research/streamconsole/sse"
)

// TransportErrorMessage is shown when the connection itself fails.
const TransportErrorMessage = "Stream error. Check the proxy and agent server logs."

// Snapshot is an immutable copy of session state.
type Snapshot struct {
	StreamID     string  `json:"stream_id,omitempty"`
	Prompt       string  `json:"prompt,omitempty"`
	Status       Status  `json:"status"`
	Events       []Event `json:"events"`
	LatestText   string  `json:"latest_text"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Live         bool    `json:"live"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides the receipt clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

type inputKind int

const (
	inputStart inputKind = iota
	inputStop
	inputClear
	inputClose
	inputOpened
	inputMessage
	inputFailed
)

// input is one inbox item. Transport notifications carry the generation of
// the handle that produced them.
type input struct {
	kind   inputKind
	gen    uint64
	prompt string
	msg    sse.Message
	err    error
	reply  chan bool
}

// handle is the exclusively owned transport connection. Only the actor
// goroutine touches it.
type handle struct {
	gen    uint64
	cancel context.CancelFunc
}

// Session drives one console's stream lifecycle. It is safe for concurrent
// use; all mutation happens on its actor goroutine.
type Session struct {
	transport Transport
	log       zerolog.Logger
	recorder  Recorder
	now       func() time.Time

	inbox     chan input
	quit      chan struct{}
	closeOnce sync.Once
	pumps     sync.WaitGroup

	mu    sync.RWMutex
	state Snapshot

	subs *broadcaster

	// actor-owned
	handle  *handle
	nextGen uint64
}

// NewSession starts a session actor over transport in the idle state.
func NewSession(transport Transport, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		log:       zerolog.Nop(),
		recorder:  nopRecorder{},
		now:       time.Now,
		inbox:     make(chan input, 64),
		quit:      make(chan struct{}),
		state:     Snapshot{Status: StatusIdle},
		subs:      newBroadcaster(),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Start begins streaming prompt, preempting any live stream. A prompt that
// is empty after trimming is ignored and Start returns false.
func (s *Session) Start(prompt string) bool {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return false
	}
	return s.call(input{kind: inputStart, prompt: prompt})
}

// Stop closes the live stream, if any, and moves to stopped.
func (s *Session) Stop() {
	s.call(input{kind: inputStop})
}

// Clear stops any live stream and resets the session to idle.
func (s *Session) Clear() {
	s.call(input{kind: inputClear})
}

// Close tears the session down: the handle is closed, subscribers are
// released, and Close waits for the transport goroutines to exit. It is
// idempotent and always returns nil.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		select {
		case s.inbox <- input{kind: inputClose}:
		case <-s.quit:
		}
		<-s.quit
		s.pumps.Wait()
	})
	return nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.state
	s.mu.RUnlock()
	snap.Events = snap.Events[:len(snap.Events):len(snap.Events)]
	return snap
}

// Subscribe returns a channel receiving a snapshot after each change, and a
// function that cancels the subscription. Slow readers only see the newest
// snapshot. The channel is closed when the session is closed.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	return s.subs.subscribe()
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.quit
}

func (s *Session) call(in input) bool {
	in.reply = make(chan bool, 1)
	select {
	case s.inbox <- in:
	case <-s.quit:
		return false
	}
	select {
	case ok := <-in.reply:
		return ok
	case <-s.quit:
		return false
	}
}

func (s *Session) run() {
	defer close(s.quit)
	for {
		in := <-s.inbox
		if s.apply(in) {
			return
		}
	}
}

// apply runs one transition to completion. It reports whether the actor should exit.
func (s *Session) apply(in input) bool {
	switch in.kind {
	case inputStart:
		s.start(in.prompt)
		in.reply <- true
	case inputStop:
		s.stop()
		in.reply <- true
	case inputClear:
		s.clear()
		in.reply <- true
	case inputClose:
		if s.closeHandle() {
			s.recorder.StreamEnded(StatusStopped)
		}
		s.subs.closeAll()
		s.log.Debug().Msg("session closed")
		return true
	case inputOpened, inputMessage, inputFailed:
		if s.handle == nil || s.handle.gen != in.gen {
			s.recorder.MessageDiscarded("stale")
			return false
		}
		s.handleNotice(in)
	}
	return false
}

func (s *Session) start(prompt string) {
	if s.closeHandle() {
		s.recorder.StreamEnded(StatusStopped)
	}

	s.nextGen++
	gen := s.nextGen
	ctx, cancel := context.WithCancel(context.Background())
	s.handle = &handle{gen: gen, cancel: cancel}

	streamID := ulid.Make().String()
	s.update(func(st *Snapshot) {
		*st = Snapshot{
			StreamID: streamID,
			Prompt:   prompt,
			Status:   StatusConnecting,
			Live:     true,
		}
	})
	s.recorder.StreamStarted()
	s.log.Info().Str("stream_id", streamID).Int("prompt_len", len(prompt)).Msg("stream starting")

	s.pumps.Add(1)
	go s.pump(ctx, gen, prompt)
}

func (s *Session) stop() {
	wasLive := s.closeHandle()
	s.update(func(st *Snapshot) {
		st.Status = StatusStopped
		st.Live = false
	})
	if wasLive {
		s.recorder.StreamEnded(StatusStopped)
		s.log.Info().Str("stream_id", s.state.StreamID).Msg("stream stopped")
	}
}

func (s *Session) clear() {
	if s.closeHandle() {
		s.recorder.StreamEnded(StatusStopped)
	}
	s.update(func(st *Snapshot) {
		*st = Snapshot{Status: StatusIdle}
	})
}

func (s *Session) handleNotice(in input) {
	switch in.kind {
	case inputOpened:
		s.update(func(st *Snapshot) { st.Status = StatusStreaming })
		s.log.Debug().Str("stream_id", s.state.StreamID).Msg("stream open")

	case inputFailed:
		s.log.Warn().Err(in.err).Str("stream_id", s.state.StreamID).Msg("stream transport failed")
		s.finish(StatusError, TransportErrorMessage)

	case inputMessage:
		c := Classify(in.msg, s.now())
		switch c.Kind {
		case KindDiscard:
			s.recorder.MessageDiscarded("malformed")
			s.log.Debug().Err(c.Reason).Str("stream_id", s.state.StreamID).Msg("frame discarded")
		case KindDone:
			s.finish(StatusCompleted, "")
		case KindError:
			s.finish(StatusError, c.Message)
		case KindEvent:
			evt := c.Event
			s.update(func(st *Snapshot) {
				st.Events = append(st.Events, evt)
				if evt.Text != "" {
					st.LatestText = evt.Text
				}
				if evt.State != "" {
					st.Status = Status(evt.State)
				}
			})
			s.recorder.EventAppended(evt)
		}
	}
}

// finish enters a terminal status and releases the handle.
func (s *Session) finish(status Status, errMessage string) {
	s.closeHandle()
	s.update(func(st *Snapshot) {
		st.Status = status
		st.ErrorMessage = errMessage
		st.Live = false
	})
	s.recorder.StreamEnded(status)
	s.log.Info().Str("stream_id", s.state.StreamID).Str("status", string(status)).
		Int("events", len(s.state.Events)).Msg("stream finished")
}

// closeHandle cancels the live handle, if any, and reports whether one was open.
func (s *Session) closeHandle() bool {
	if s.handle == nil {
		return false
	}
	s.handle.cancel()
	s.handle = nil
	return true
}

// update mutates state under the write lock and publishes the result. Only
// the published copy is clipped: the live log keeps its spare capacity for
// amortized appends, and an append by a reader reallocates instead of
// writing into it.
func (s *Session) update(fn func(st *Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state
	s.mu.Unlock()
	snap.Events = snap.Events[:len(snap.Events):len(snap.Events)]
	s.subs.publish(snap)
}

// pump connects and forwards frames in wire order until the stream ends or
// the handle is cancelled.
func (s *Session) pump(ctx context.Context, gen uint64, prompt string) {
	defer s.pumps.Done()

	stream, err := s.transport.Connect(ctx, prompt)
	if err != nil {
		s.notify(ctx, input{kind: inputFailed, gen: gen, err: err})
		return
	}
	defer stream.Close()

	if !s.notify(ctx, input{kind: inputOpened, gen: gen}) {
		return
	}
	for {
		msg, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrStreamEnded
			}
			s.notify(ctx, input{kind: inputFailed, gen: gen, err: err})
			return
		}
		if !s.notify(ctx, input{kind: inputMessage, gen: gen, msg: msg}) {
			return
		}
	}
}

func (s *Session) notify(ctx context.Context, in input) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.inbox <- in:
		return true
	case <-ctx.Done():
		return false
	case <-s.quit:
		return false
	}
}
