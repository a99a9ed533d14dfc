package maxchat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// Default connection headers.
const (
	DefaultOrigin    = "https://web.max.ru"
	DefaultUserAgent = "PythonWebSocketClient/1.0"
)

// Transport provides the interface for sending and receiving text frames.
// Implementations must be safe for concurrent use and must serialize
// concurrent Send calls so frames are never interleaved.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// DialFunc opens a Transport. Dial is the default.
type DialFunc func(ctx context.Context, url string, opts *DialOptions) (Transport, error)

// DialOptions configures the WebSocket connection.
type DialOptions struct {
	// Origin is sent as the Origin header. Defaults to DefaultOrigin.
	Origin string

	// UserAgent is sent as the User-Agent header. Defaults to DefaultUserAgent.
	UserAgent string

	// HTTPHeader specifies additional HTTP headers to send during handshake.
	HTTPHeader http.Header

	// HTTPClient is the HTTP client used for the handshake.
	// If nil, http.DefaultClient is used.
	HTTPClient *http.Client
}

// Dial connects to a chat server and returns a Transport.
func Dial(ctx context.Context, url string, opts *DialOptions) (Transport, error) {
	headers := http.Header{}
	if opts != nil && opts.HTTPHeader != nil {
		headers = opts.HTTPHeader.Clone()
	}

	origin, userAgent := DefaultOrigin, DefaultUserAgent
	if opts != nil && opts.Origin != "" {
		origin = opts.Origin
	}
	if opts != nil && opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}
	headers.Set("Origin", origin)
	headers.Set("User-Agent", userAgent)

	dialOpts := &websocket.DialOptions{
		HTTPHeader: headers,
	}
	if opts != nil && opts.HTTPClient != nil {
		dialOpts.HTTPClient = opts.HTTPClient
	}

	conn, _, err := websocket.Dial(ctx, url, dialOpts)
	if err != nil {
		return nil, &TransportError{Op: "dial", URL: url, Err: err}
	}

	// Initial chat sync frames can be large
	conn.SetReadLimit(32 * 1024 * 1024) // 32MB

	return &wsTransport{conn: conn}, nil
}

// wsTransport implements Transport over WebSocket.
type wsTransport struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Send writes one text frame.
func (t *wsTransport) Send(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return &TransportError{Op: "write", Err: err}
	}

	return nil
}

// Receive blocks until a frame arrives.
func (t *wsTransport) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		if isPeerClosed(err) {
			return nil, &TransportError{Op: "read", Err: fmt.Errorf("%w: %w", ErrPeerClosed, err)}
		}
		return nil, &TransportError{Op: "read", Err: err}
	}

	return data, nil
}

// Close closes the transport.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	return t.conn.Close(websocket.StatusNormalClosure, "")
}

// isPeerClosed reports whether a read error means the connection is gone
// for good: a close frame, EOF, or a connection already torn down.
func isPeerClosed(err error) bool {
	if websocket.CloseStatus(err) != -1 {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}
