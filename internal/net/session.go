package net

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/metrics"
)

const closeGrace = 100 * time.Millisecond

// Session is one client connection. Network I/O runs in two goroutines,
// readLoop and writeLoop; whichever fails first closes the session, which
// stops the other. Game state is never touched from here.
type Session struct {
	ID   event.ConnID
	IP   string
	conn *websocket.Conn

	// OutQueue holds frames waiting for writeLoop. It is never closed;
	// writeLoop exits on closeCh instead, so TrySend can't panic.
	OutQueue chan []byte

	queue   *event.Queue
	limiter *rate.Limiter
	opts    Options
	onClose func(*Session)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func newSession(conn *websocket.Conn, id event.ConnID, queue *event.Queue, opts Options, onClose func(*Session), log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		IP:       conn.RemoteAddr().String(),
		conn:     conn,
		OutQueue: make(chan []byte, opts.OutQueueSize),
		queue:    queue,
		opts:     opts,
		onClose:  onClose,
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("conn", uint64(id))),
	}
	if opts.InputsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.InputsPerSecond), max(opts.InputBurst, 1))
	}
	return s
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// TrySend queues a frame without blocking. It reports false when the session
// is closed or its queue is full.
func (s *Session) TrySend(frame []byte) bool {
	if s.IsClosed() {
		return false
	}
	select {
	case s.OutQueue <- frame:
		return true
	default:
		return false
	}
}

// Close shuts the session down. Safe to call from any goroutine, any number
// of times; only the first call has an effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		s.conn.Close()
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// IsClosed reports whether Close has run.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop turns inbound frames into Input events. It never blocks on the
// event queue: a full queue drops the frame.
func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.opts.MaxMessageSize)
	s.extendReadDeadline()
	s.conn.SetPongHandler(func(string) error {
		s.extendReadDeadline()
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.IsClosed() {
				s.logReadError(err)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if s.limiter != nil && !s.limiter.Allow() {
			metrics.InputsThrottled.Inc()
			continue
		}
		s.queue.TryPush(event.Input(s.ID, data))
	}
}

func (s *Session) extendReadDeadline() {
	if s.opts.ReadTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}
}

func (s *Session) logReadError(err error) {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		s.log.Debug("client closed connection")
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Info("frame exceeded size limit", zap.Int64("limit", s.opts.MaxMessageSize))
	case errors.Is(err, io.EOF) || websocket.IsUnexpectedCloseError(err):
		s.log.Debug("connection dropped", zap.Error(err))
	default:
		s.log.Debug("read error", zap.Error(err))
	}
}

// writeLoop drains OutQueue to the socket and keeps the connection alive
// with pings.
func (s *Session) writeLoop() {
	defer s.Close()

	var ping <-chan time.Time
	if s.opts.PingInterval > 0 {
		ticker := time.NewTicker(s.opts.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case frame := <-s.OutQueue:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				if !s.IsClosed() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-ping:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				if !s.IsClosed() {
					s.log.Debug("ping failed", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) write(msgType int, data []byte) error {
	if s.opts.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
	return s.conn.WriteMessage(msgType, data)
}

// ConnID implements broadcast.Target.
func (s *Session) ConnID() event.ConnID { return s.ID }
