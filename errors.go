package maxchat

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrClosed            = errors.New("maxchat: connection closed")
	ErrPeerClosed        = errors.New("maxchat: connection closed by peer")
	ErrNotConnected      = errors.New("maxchat: not connected")
	ErrAlreadyConnected  = errors.New("maxchat: already connected")
	ErrStopped           = errors.New("maxchat: session stopped")
	ErrTooManyReadErrors = errors.New("maxchat: too many consecutive read errors")

	errNilEnvelope = errors.New("nil envelope")
)

// TransportError represents a failure of the WebSocket connection.
type TransportError struct {
	Op  string // "dial", "read" or "write"
	URL string // set for dial failures only
	Err error
}

func (e *TransportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("maxchat: %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("maxchat: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConnectError is returned by Session.Connect when the transport cannot be
// established or the handshake cannot be written.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("maxchat: connect %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SendError represents an error while encoding or writing an envelope.
type SendError struct {
	Op     string
	Opcode Opcode
	Seq    int64
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("maxchat: send %s (opcode %s, seq %d): %v", e.Op, e.Opcode, e.Seq, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// DecodeError represents an inbound frame that is not a JSON object.
type DecodeError struct {
	Data []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("maxchat: decode frame (%d bytes): %v", len(e.Data), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
