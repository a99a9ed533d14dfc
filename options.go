package maxchat

import (
	"log/slog"
	"net/http"
)

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	watchChats     []int64
	userAgent      string
	origin         string
	header         http.Header
	httpClient     *http.Client
	dial           DialFunc
	logger         *slog.Logger
	onSend         func(*Envelope)
	onReceive      func(Frame)
	skipMalformed  bool
	readErrorLimit int
}

// WithWatchChats sets the chats announced in the handshake.
func WithWatchChats(ids ...int64) SessionOption {
	return func(c *sessionConfig) {
		c.watchChats = append([]int64(nil), ids...)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) SessionOption {
	return func(c *sessionConfig) {
		c.userAgent = ua
	}
}

// WithOrigin overrides the Origin header.
func WithOrigin(origin string) SessionOption {
	return func(c *sessionConfig) {
		c.origin = origin
	}
}

// WithHTTPHeader adds headers to the connection request.
func WithHTTPHeader(h http.Header) SessionOption {
	return func(c *sessionConfig) {
		c.header = h
	}
}

// WithHTTPClient sets the HTTP client used for the WebSocket handshake.
func WithHTTPClient(client *http.Client) SessionOption {
	return func(c *sessionConfig) {
		c.httpClient = client
	}
}

// WithDialer replaces Dial, e.g. to supply a custom Transport.
func WithDialer(dial DialFunc) SessionOption {
	return func(c *sessionConfig) {
		c.dial = dial
	}
}

// WithLogger sets a structured logger for the session.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithOnSend sets a callback invoked before each envelope is written.
func WithOnSend(fn func(*Envelope)) SessionOption {
	return func(c *sessionConfig) {
		c.onSend = fn
	}
}

// WithOnReceive sets a callback invoked after each frame is decoded,
// before it is passed to the handler.
func WithOnReceive(fn func(Frame)) SessionOption {
	return func(c *sessionConfig) {
		c.onReceive = fn
	}
}

// WithSkipMalformed makes ReceiveLoop log and drop frames that are not
// valid JSON objects instead of returning a DecodeError.
func WithSkipMalformed() SessionOption {
	return func(c *sessionConfig) {
		c.skipMalformed = true
	}
}

// WithReadErrorLimit ends ReceiveLoop after n consecutive transient read
// errors. Zero means no limit.
func WithReadErrorLimit(n int) SessionOption {
	return func(c *sessionConfig) {
		c.readErrorLimit = n
	}
}

func (c *sessionConfig) dialOptions() *DialOptions {
	return &DialOptions{
		Origin:     c.origin,
		UserAgent:  c.userAgent,
		HTTPHeader: c.header,
		HTTPClient: c.httpClient,
	}
}
