// ABOUTME: Event records and the classifier that turns one decoded SSE frame into an event or a control signal.
// ABOUTME: All payload defaulting happens here; malformed frames are discarded without surfacing an error.
package console

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/streamconsole/sse"
)

// DefaultErrorMessage is used when an upstream error payload carries no message.
const DefaultErrorMessage = "Proxy error"

// TimestampFormat is the ISO-8601 form used for receipt-time timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Event is one record in the session's append-only log. Events are never
// modified after they are appended.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	State     string `json:"state"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
}

// payload is the upstream JSON shape. Every field is optional.
type payload struct {
	Type    string
	State   string
	Text    string
	TS      string
	Message string
}

// decodePayload reads the known fields by exact key. A struct target would
// fold key case, letting "Type" or "TYPE" steer classification.
func decodePayload(data []byte) (payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return payload{}, err
	}
	var p payload
	for key, dst := range map[string]*string{
		"type":    &p.Type,
		"state":   &p.State,
		"text":    &p.Text,
		"ts":      &p.TS,
		"message": &p.Message,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return payload{}, fmt.Errorf("field %q: %w", key, err)
		}
	}
	return p, nil
}

// Kind says what a classified frame asks the session to do.
type Kind int

const (
	KindDiscard Kind = iota // malformed or not for us; no effect
	KindEvent               // append Event
	KindDone                // terminal success
	KindError               // terminal failure with Message
)

func (k Kind) String() string {
	switch k {
	case KindDiscard:
		return "discard"
	case KindEvent:
		return "event"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Classified is the result of classifying one frame.
type Classified struct {
	Kind    Kind
	Event   Event  // set for KindEvent
	Message string // set for KindError
	Reason  error  // why a frame was discarded
}

var (
	errNamedEvent = errors.New("named sse event")
	errNotObject  = errors.New("payload is not a json object")
)

// Classify interprets a single frame received at now. Only unnamed frames are
// considered, matching EventSource onmessage delivery; their data must be a
// JSON object.
func Classify(msg sse.Message, now time.Time) Classified {
	if msg.Event != "" && msg.Event != sse.DefaultEvent {
		return Classified{Kind: KindDiscard, Reason: fmt.Errorf("%w %q", errNamedEvent, msg.Event)}
	}

	data := bytes.TrimSpace([]byte(msg.Data))
	if len(data) == 0 || data[0] != '{' {
		return Classified{Kind: KindDiscard, Reason: errNotObject}
	}
	p, err := decodePayload(data)
	if err != nil {
		return Classified{Kind: KindDiscard, Reason: fmt.Errorf("decode payload: %w", err)}
	}

	switch p.Type {
	case "done":
		return Classified{Kind: KindDone}
	case "error":
		message := p.Message
		if message == "" {
			message = DefaultErrorMessage
		}
		return Classified{Kind: KindError, Message: message}
	}

	evt := Event{
		ID:        uuid.NewString(),
		Type:      p.Type,
		State:     p.State,
		Text:      p.Text,
		Timestamp: p.TS,
	}
	if evt.Type == "" {
		evt.Type = "message"
	}
	if evt.Timestamp == "" {
		evt.Timestamp = now.UTC().Format(TimestampFormat)
	}
	return Classified{Kind: KindEvent, Event: evt}
}
