// Command arenabot connects a number of scripted clients to an arena server
// and steers them randomly. Useful for load and soak testing.
//
//	arenabot [url] [clients]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/protocol"
)

const (
	defaultURL     = "ws://127.0.0.1:8080/"
	defaultClients = 4
	steerEvery     = 250 * time.Millisecond
	reportEvery    = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	url := defaultURL
	clients := defaultClients
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 1 {
			return fmt.Errorf("clients must be a positive integer, got %q", os.Args[2])
		}
		clients = n
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b := &bot{n: n, url: url, rng: rand.New(rand.NewSource(int64(n))), log: log.With(zap.Int("bot", n))}
			if err := b.run(ctx); err != nil {
				b.log.Warn("bot stopped", zap.Error(err))
			}
		}(i)
	}
	wg.Wait()
	return nil
}

type bot struct {
	n   int
	url string
	rng *rand.Rand
	log *zap.Logger
}

func (b *bot) run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	readErr := make(chan error, 1)
	go func() { readErr <- b.readLoop(conn) }()

	steer := time.NewTicker(steerEvery)
	defer steer.Stop()
	for {
		select {
		case <-steer.C:
			in := protocol.Input{X: b.rng.Float64()*2 - 1, Y: b.rng.Float64()*2 - 1}
			data, _ := json.Marshal(in)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-ctx.Done():
			<-readErr
			return nil
		}
	}
}

func (b *bot) readLoop(conn *websocket.Conn) error {
	var last time.Time
	var frames int
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		frames++
		if time.Since(last) < reportEvery {
			continue
		}
		var snap protocol.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("bad snapshot: %w", err)
		}
		b.log.Info("snapshot",
			zap.Uint64("tick", snap.Tick),
			zap.Int("entities", len(snap.Entities)),
			zap.Int("frames", frames),
		)
		last = time.Now()
		frames = 0
	}
}
