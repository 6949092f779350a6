// ABOUTME: Server-Sent Events wire codec for the stream console.
// ABOUTME: Parser decodes frames from an io.Reader; Message.Format encodes them for the web push feed.

package sse

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// DefaultEvent is the event name assigned to frames without an "event:" field.
const DefaultEvent = "message"

// Message is one dispatched SSE frame.
type Message struct {
	Event string // from "event:", DefaultEvent when absent
	Data  string // "data:" lines joined with "\n"
	ID    string // from "id:"
	Retry int    // from "retry:", -1 when absent
}

// Format encodes the message in wire form, terminated by a blank line.
// Multi-line data is split across several "data:" fields.
func (m Message) Format() string {
	var b strings.Builder
	if m.ID != "" {
		b.WriteString("id: " + m.ID + "\n")
	}
	if m.Event != "" && m.Event != DefaultEvent {
		b.WriteString("event: " + m.Event + "\n")
	}
	if m.Retry >= 0 {
		b.WriteString("retry: " + strconv.Itoa(m.Retry) + "\n")
	}
	for _, line := range strings.Split(normalizeNewlines(m.Data), "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Data builds a default-event message carrying data.
func Data(data string) Message {
	return Message{Event: DefaultEvent, Data: data, Retry: -1}
}

// Parser reads SSE frames from an io.Reader.
type Parser struct {
	lines *lineReader
	done  bool

	event   string
	data    []string
	sawData bool
	lastID  string
	retry   int
}

// NewParser returns a Parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lines: newLineReader(r), retry: -1}
}

// Next returns the next dispatched message, or io.EOF once the stream ends.
// A trailing frame without its terminating blank line is still dispatched.
func (p *Parser) Next() (Message, error) {
	if p.done {
		return Message{}, io.EOF
	}

	for {
		line, err := p.lines.next()
		if errors.Is(err, io.EOF) {
			p.done = true
			if p.sawData {
				return p.dispatch(), nil
			}
			return Message{}, io.EOF
		}
		if err != nil {
			return Message{}, err
		}

		if line == "" {
			if !p.sawData {
				p.event = ""
				continue
			}
			return p.dispatch(), nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		p.apply(field, value)
	}
}

func splitField(line string) (field, value string) {
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}

func (p *Parser) apply(field, value string) {
	switch field {
	case "event":
		p.event = value
	case "data":
		p.data = append(p.data, value)
		p.sawData = true
	case "id":
		// IDs containing NUL are ignored by EventSource.
		if !strings.ContainsRune(value, 0) {
			p.lastID = value
		}
	case "retry":
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			p.retry = n
		}
	}
}

// dispatch emits the accumulated frame and resets per-frame fields. The last
// event ID persists across frames, as EventSource does.
func (p *Parser) dispatch() Message {
	event := p.event
	if event == "" {
		event = DefaultEvent
	}
	msg := Message{
		Event: event,
		Data:  strings.Join(p.data, "\n"),
		ID:    p.lastID,
		Retry: p.retry,
	}
	p.event = ""
	p.data = nil
	p.sawData = false
	p.retry = -1
	return msg
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// lineReader yields lines terminated by LF, CR, or CRLF.
// bufio.Scanner does not treat a bare CR as a terminator.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 4096)}
}

func (l *lineReader) next() (string, error) {
	var line strings.Builder
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && line.Len() > 0 {
				return line.String(), nil
			}
			return "", err
		}

		switch b {
		case '\n':
			return line.String(), nil
		case '\r':
			if next, err := l.r.ReadByte(); err == nil && next != '\n' {
				_ = l.r.UnreadByte()
			}
			return line.String(), nil
		default:
			line.WriteByte(b)
		}
	}
}
