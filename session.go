package maxchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State represents the lifecycle state of a Session.
type State string

const (
	StateIdle      State = "idle"
	StateConnected State = "connected"
	StateStopped   State = "stopped"
)

// DefaultKeepaliveInterval is used when StartKeepalive is given no interval.
const DefaultKeepaliveInterval = 30 * time.Second

// Handler receives decoded inbound frames. ReceiveLoop does not read the
// next frame until the handler returns.
type Handler func(Frame)

// Session is a connection to the chat service.
// It is safe for concurrent use by multiple goroutines.
type Session struct {
	url   string
	token string
	id    string
	cfg   sessionConfig
	seq   Sequencer

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	connectMu sync.Mutex

	mu        sync.RWMutex
	state     State
	transport Transport

	done     chan struct{}
	doneOnce sync.Once
}

// NewSession creates an idle session. Call Connect to open it.
func NewSession(url, token string, opts ...SessionOption) *Session {
	cfg := sessionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dial == nil {
		cfg.dial = Dial
	}

	id := uuid.NewString()
	if cfg.logger != nil {
		cfg.logger = cfg.logger.With(slog.String("session_id", id))
	}

	return &Session{
		url:   url,
		token: token,
		id:    id,
		cfg:   cfg,
		now:   time.Now,
		after: time.After,
		state: StateIdle,
		done:  make(chan struct{}),
	}
}

// ID returns the session's local correlation id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Running reports whether the session is connected.
func (s *Session) Running() bool {
	return s.State() == StateConnected
}

// WatchChats returns the chats announced in the handshake.
func (s *Session) WatchChats() []int64 {
	return append([]int64(nil), s.cfg.watchChats...)
}

// Connect opens the transport and sends the handshake. A session can only
// be connected once; after Stop, create a new Session.
func (s *Session) Connect(ctx context.Context) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	switch s.State() {
	case StateConnected:
		return ErrAlreadyConnected
	case StateStopped:
		return ErrStopped
	}

	transport, err := s.cfg.dial(ctx, s.url, s.cfg.dialOptions())
	if err != nil {
		return &ConnectError{URL: s.url, Err: err}
	}

	// The transport stays private until the handshake is on the wire, so
	// concurrent senders see ErrNotConnected and cannot take seq 1.
	hs := NewEnvelope(s.seq.Next(), OpHandshake, NewHandshakePayload(s.token, len(s.cfg.watchChats)))
	if err := s.write(ctx, transport, hs); err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		s.doneOnce.Do(func() { close(s.done) })
		_ = transport.Close()
		return &ConnectError{URL: s.url, Err: err}
	}

	s.mu.Lock()
	s.transport = transport
	s.state = StateConnected
	s.mu.Unlock()

	if s.cfg.logger != nil {
		s.cfg.logger.Info("connection established", slog.String("url", s.url))
	}
	return nil
}

// SubscribeChannel subscribes to text events of a chat. No acknowledgment
// is awaited.
func (s *Session) SubscribeChannel(ctx context.Context, chatID int64) error {
	seq, err := s.Send(ctx, OpSubscribe, NewSubscribePayload(chatID))
	if err != nil {
		return err
	}

	if s.cfg.logger != nil {
		s.cfg.logger.Info("subscribed to chat",
			slog.Int64("chat_id", chatID),
			slog.Int64("seq", seq),
		)
	}
	return nil
}

// SendMessage posts text to a chat. The client message id is the current
// time in milliseconds.
func (s *Session) SendMessage(ctx context.Context, chatID int64, text string) error {
	cid := s.now().UnixMilli()
	seq, err := s.Send(ctx, OpSendMsg, NewSendMessagePayload(chatID, text, cid))
	if err != nil {
		return err
	}

	if s.cfg.logger != nil {
		s.cfg.logger.Info("message sent",
			slog.Int64("chat_id", chatID),
			slog.Int64("cid", cid),
			slog.Int64("seq", seq),
		)
	}
	return nil
}

// Send wraps payload in an envelope with the next sequence number and
// writes it. It returns the sequence number used. No sequence number is
// consumed when the session is not connected.
func (s *Session) Send(ctx context.Context, op Opcode, payload any) (int64, error) {
	transport := s.currentTransport()
	if transport == nil {
		return 0, ErrNotConnected
	}

	env := NewEnvelope(s.seq.Next(), op, payload)
	return env.Seq, s.write(ctx, transport, env)
}

// SendRaw encodes env and writes it as is.
func (s *Session) SendRaw(ctx context.Context, env *Envelope) error {
	if env == nil {
		return &SendError{Op: "marshal", Err: errNilEnvelope}
	}
	transport := s.currentTransport()
	if transport == nil {
		return ErrNotConnected
	}
	return s.write(ctx, transport, env)
}

func (s *Session) write(ctx context.Context, transport Transport, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return &SendError{Op: "marshal", Opcode: env.Opcode, Seq: env.Seq, Err: err}
	}

	// Observability hook
	if s.cfg.onSend != nil {
		s.cfg.onSend(env)
	}

	if s.cfg.logger != nil {
		s.cfg.logger.Debug("sending envelope",
			slog.String("opcode", env.Opcode.String()),
			slog.Int64("seq", env.Seq),
		)
	}

	if err := transport.Send(ctx, data); err != nil {
		return &SendError{Op: "write", Opcode: env.Opcode, Seq: env.Seq, Err: err}
	}
	return nil
}

// StartKeepalive sends a heartbeat now and then every interval until the
// session stops, ctx is done, or a heartbeat fails to send. Failures end
// the loop silently.
func (s *Session) StartKeepalive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultKeepaliveInterval
	}
	go s.keepalive(ctx, interval)
}

func (s *Session) keepalive(ctx context.Context, interval time.Duration) {
	for s.Running() {
		if _, err := s.Send(ctx, OpHeartbeat, HeartbeatPayload{Interactive: false}); err != nil {
			if s.cfg.logger != nil {
				s.cfg.logger.Debug("keepalive stopped", slog.Any("error", err))
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.after(interval):
		}
	}
}

// ReceiveLoop reads frames and passes them to handler until the session
// stops, the peer closes the connection, or ctx is done. A clean close by
// either side returns nil. Transient read errors are logged and skipped.
// A frame that is not a JSON object ends the loop with a *DecodeError
// unless WithSkipMalformed is set. The transport is always closed on return.
func (s *Session) ReceiveLoop(ctx context.Context, handler Handler) error {
	transport := s.currentTransport()
	if transport == nil {
		return ErrNotConnected
	}
	defer s.shutdown()

	failures := 0
	for s.Running() {
		data, err := transport.Receive(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, ErrPeerClosed):
				if s.cfg.logger != nil {
					s.cfg.logger.Info("connection closed by server")
				}
				return nil
			case errors.Is(err, ErrClosed):
				return nil
			}

			failures++
			if s.cfg.logger != nil {
				s.cfg.logger.Warn("receive failed",
					slog.Any("error", err),
					slog.Int("consecutive", failures),
				)
			}
			if s.cfg.readErrorLimit > 0 && failures >= s.cfg.readErrorLimit {
				return fmt.Errorf("%w: %w", ErrTooManyReadErrors, err)
			}
			continue
		}
		failures = 0

		if len(data) == 0 {
			continue
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			if !s.cfg.skipMalformed {
				return err
			}
			if s.cfg.logger != nil {
				s.cfg.logger.Warn("dropping malformed frame", slog.Any("error", err))
			}
			continue
		}

		// Observability hook
		if s.cfg.onReceive != nil {
			s.cfg.onReceive(frame)
		}

		if s.cfg.logger != nil {
			op, _ := frame.Opcode()
			seq, _ := frame.Seq()
			s.cfg.logger.Debug("received frame",
				slog.String("opcode", op.String()),
				slog.Int64("seq", seq),
			)
		}

		if handler != nil {
			handler(frame)
		}
	}

	return nil
}

// Stop closes the connection. It is safe to call more than once and
// before Connect.
func (s *Session) Stop() error {
	if s.State() != StateConnected {
		return nil
	}

	if s.cfg.logger != nil {
		s.cfg.logger.Info("stopping session")
	}
	return s.shutdown()
}

// shutdown moves a connected session to stopped and closes the transport.
// Only the first caller sees the transport, so it is closed once.
func (s *Session) shutdown() error {
	s.mu.Lock()
	transport := s.transport
	s.transport = nil
	if s.state == StateConnected {
		s.state = StateStopped
	}
	s.mu.Unlock()

	s.doneOnce.Do(func() { close(s.done) })

	if transport == nil {
		return nil
	}
	return transport.Close()
}

func (s *Session) currentTransport() Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}
