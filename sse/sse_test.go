// ABOUTME: Tests for the SSE wire codec.
// ABOUTME: Covers data joining, event names, IDs, retry, comments, line endings, trailing frames, and Format.

package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func collect(t *testing.T, input string) []Message {
	t.Helper()
	p := NewParser(strings.NewReader(input))
	var out []Message
	for {
		msg, err := p.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, msg)
	}
}

func TestSingleDataFrame(t *testing.T) {
	msgs := collect(t, "data: {\"type\":\"done\"}\n\n")
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Event != DefaultEvent {
		t.Errorf("event = %q, want %q", msgs[0].Event, DefaultEvent)
	}
	if msgs[0].Data != `{"type":"done"}` {
		t.Errorf("data = %q", msgs[0].Data)
	}
	if msgs[0].Retry != -1 {
		t.Errorf("retry = %d, want -1", msgs[0].Retry)
	}
}

func TestMultiLineDataJoined(t *testing.T) {
	msgs := collect(t, "data: one\ndata: two\ndata: three\n\n")
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Data != "one\ntwo\nthree" {
		t.Errorf("data = %q", msgs[0].Data)
	}
}

func TestFramesPreserveWireOrder(t *testing.T) {
	input := "data: 1\n\ndata: 2\n\ndata: 3\n\n"
	msgs := collect(t, input)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"1", "2", "3"} {
		if msgs[i].Data != want {
			t.Errorf("msgs[%d].Data = %q, want %q", i, msgs[i].Data, want)
		}
	}
}

func TestNamedEventAndID(t *testing.T) {
	msgs := collect(t, "event: view\nid: 7\ndata: x\n\ndata: y\n\n")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Event != "view" || msgs[0].ID != "7" {
		t.Errorf("first = %+v", msgs[0])
	}
	if msgs[1].Event != DefaultEvent {
		t.Errorf("event name leaked into next frame: %q", msgs[1].Event)
	}
	if msgs[1].ID != "7" {
		t.Errorf("last event id should persist, got %q", msgs[1].ID)
	}
}

func TestRetryField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"valid", "retry: 3000\ndata: x\n\n", 3000},
		{"invalid", "retry: soon\ndata: x\n\n", -1},
		{"negative", "retry: -5\ndata: x\n\n", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := collect(t, tt.input)
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			if msgs[0].Retry != tt.want {
				t.Errorf("retry = %d, want %d", msgs[0].Retry, tt.want)
			}
		})
	}
}

func TestCommentsAndBlankLinesSkipped(t *testing.T) {
	msgs := collect(t, ": keepalive\n\n\n: another\ndata: real\n\n")
	if len(msgs) != 1 || msgs[0].Data != "real" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestLineEndings(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lf", "data: a\ndata: b\n\n"},
		{"crlf", "data: a\r\ndata: b\r\n\r\n"},
		{"cr", "data: a\rdata: b\r\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := collect(t, tt.input)
			if len(msgs) != 1 || msgs[0].Data != "a\nb" {
				t.Fatalf("unexpected messages: %+v", msgs)
			}
		})
	}
}

func TestFieldWithoutColonOrSpace(t *testing.T) {
	msgs := collect(t, "data\n\ndata:nospace\n\n")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Data != "" {
		t.Errorf("bare field data = %q, want empty", msgs[0].Data)
	}
	if msgs[1].Data != "nospace" {
		t.Errorf("data = %q, want %q", msgs[1].Data, "nospace")
	}
}

func TestTrailingFrameWithoutBlankLine(t *testing.T) {
	msgs := collect(t, "data: first\n\ndata: tail")
	if len(msgs) != 2 || msgs[1].Data != "tail" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestNextAfterEOF(t *testing.T) {
	p := NewParser(strings.NewReader(""))
	for i := 0; i < 2; i++ {
		if _, err := p.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("call %d: expected io.EOF, got %v", i, err)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestReadErrorPropagates(t *testing.T) {
	p := NewParser(failingReader{})
	_, err := p.Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestFormatParsesBack(t *testing.T) {
	msg := Message{Event: "view", ID: "3", Data: "line one\nline two", Retry: -1}
	wire := msg.Format()
	if !strings.HasSuffix(wire, "\n\n") {
		t.Fatalf("formatted frame must end with a blank line: %q", wire)
	}
	msgs := collect(t, wire)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0] != msg {
		t.Errorf("got %+v, want %+v", msgs[0], msg)
	}
}

func TestFormatDefaultEventOmitsName(t *testing.T) {
	wire := Data(`{"type":"done"}`).Format()
	if wire != "data: {\"type\":\"done\"}\n\n" {
		t.Errorf("wire = %q", wire)
	}
}
