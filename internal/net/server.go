package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/metrics"
)

// Options tunes every connection the server accepts.
type Options struct {
	OutQueueSize    int
	MaxMessageSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	InputsPerSecond float64
	InputBurst      int
	MaxConnections  int
	// MetricsPath, when set, serves Prometheus metrics instead of upgrading.
	MetricsPath string
}

// Server upgrades HTTP requests to WebSocket sessions. Each accepted
// connection is registered in the outbound registry and announced to the
// tick loop with a Connect event; each closed one is deregistered and
// announced with a Disconnect event.
type Server struct {
	opts     Options
	queue    *event.Queue
	registry *Registry
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	nextID   atomic.Uint64
	log      *zap.Logger

	listener net.Listener
	httpSrv  *http.Server
}

func NewServer(opts Options, queue *event.Queue, log *zap.Logger) *Server {
	if opts.OutQueueSize < 1 {
		opts.OutQueueSize = 1
	}
	s := &Server{
		opts:     opts,
		queue:    queue,
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from anywhere; there are no cookies to protect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
		log: log,
	}
	if opts.MetricsPath != "" {
		s.mux.Handle(opts.MetricsPath, promhttp.Handler())
	}
	s.mux.HandleFunc("/", s.handleUpgrade)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Registry returns the outbound registry.
func (s *Server) Registry() *Registry { return s.registry }

// Listen binds addr. A bind failure is returned immediately so the caller
// can exit before starting anything else.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Serve accepts connections until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	if s.httpSrv == nil {
		return errors.New("serve before listen")
	}
	if err := s.httpSrv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting and closes every session. Hijacked WebSocket
// connections are not tracked by http.Server, so they are closed here.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	n := s.registry.CloseAll()
	s.log.Info("sessions closed", zap.Int("count", n))
	return err
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if limit := s.opts.MaxConnections; limit > 0 && s.registry.Len() >= limit {
		metrics.ConnectionsRejected.WithLabelValues("capacity").Inc()
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		metrics.ConnectionsRejected.WithLabelValues("handshake").Inc()
		s.log.Debug("websocket handshake failed", zap.String("ip", r.RemoteAddr), zap.Error(err))
		return
	}

	id := event.ConnID(s.nextID.Add(1))
	sess := newSession(conn, id, s.queue, s.opts, s.sessionClosed, s.log)

	if !s.registry.Add(sess, s.opts.MaxConnections) {
		metrics.ConnectionsRejected.WithLabelValues("capacity").Inc()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server full"),
			time.Now().Add(closeGrace))
		conn.Close()
		return
	}
	s.queue.TryPush(event.Connect(id))
	s.log.Info("client connected",
		zap.Uint64("conn", uint64(id)),
		zap.String("ip", sess.IP),
		zap.Int("connections", s.registry.Len()),
	)
	sess.Start()
}

// sessionClosed runs exactly once per session, on whichever goroutine
// closed it.
func (s *Server) sessionClosed(sess *Session) {
	if !s.registry.Remove(sess.ID) {
		return
	}
	s.queue.TryPush(event.Disconnect(sess.ID))
	s.log.Info("client disconnected",
		zap.Uint64("conn", uint64(sess.ID)),
		zap.String("ip", sess.IP),
		zap.Int("connections", s.registry.Len()),
	)
}
