// ABOUTME: Transport abstraction for opening one SSE stream per prompt, plus the HTTP implementation.
// ABOUTME: HTTPTransport sends the trimmed prompt as a query parameter and decodes frames with the sse parser.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/2389-research/streamconsole/sse"
)

// DefaultPromptParam is the query parameter carrying the prompt.
const DefaultPromptParam = "text"

// ErrStreamEnded reports that the server closed the stream before sending done.
var ErrStreamEnded = errors.New("stream ended without a done message")

// Transport opens streams. Connect may block until response headers arrive;
// the returned stream must stop producing once ctx is cancelled.
type Transport interface {
	Connect(ctx context.Context, prompt string) (MessageStream, error)
}

// MessageStream yields frames in wire order. Next returns io.EOF when the
// server ends the stream.
type MessageStream interface {
	Next() (sse.Message, error)
	Close() error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, prompt string) (MessageStream, error)

// Connect calls f.
func (f TransportFunc) Connect(ctx context.Context, prompt string) (MessageStream, error) {
	return f(ctx, prompt)
}

// HTTPTransport connects to a query-parameterized SSE endpoint.
type HTTPTransport struct {
	URL    string       // stream endpoint, e.g. http://localhost:8000/api/stream
	Param  string       // prompt parameter, DefaultPromptParam when empty
	Client *http.Client // http.DefaultClient when nil; must not set a Timeout
}

// StreamURL returns the endpoint URL for prompt.
func (t *HTTPTransport) StreamURL(prompt string) (string, error) {
	u, err := url.Parse(t.URL)
	if err != nil {
		return "", fmt.Errorf("parse stream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("stream url %q: unsupported scheme %q", t.URL, u.Scheme)
	}
	param := t.Param
	if param == "" {
		param = DefaultPromptParam
	}
	q := u.Query()
	q.Set(param, prompt)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect issues the GET and validates the response before handing the body
// to the parser.
func (t *HTTPTransport) Connect(ctx context.Context, prompt string) (MessageStream, error) {
	target, err := t.StreamURL(prompt)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drainAndClose(resp.Body)
		return nil, fmt.Errorf("stream endpoint returned %s", resp.Status)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		drainAndClose(resp.Body)
		return nil, fmt.Errorf("stream endpoint returned content type %q", resp.Header.Get("Content-Type"))
	}

	return &httpStream{body: resp.Body, parser: sse.NewParser(resp.Body)}, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

type httpStream struct {
	body   io.ReadCloser
	parser *sse.Parser
}

func (s *httpStream) Next() (sse.Message, error) {
	return s.parser.Next()
}

func (s *httpStream) Close() error {
	return s.body.Close()
}
