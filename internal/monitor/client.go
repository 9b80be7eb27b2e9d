package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"dronewatch/internal/telemetry"
)

const (
	pingInterval     = 15 * time.Second
	reconnectBackoff = 2 * time.Second
)

// Feed streams snapshots from a server's WebSocket endpoint into a Monitor.
// It reconnects with a fixed backoff until the context is done.
type Feed struct {
	url     string
	monitor *Monitor
	logger  *slog.Logger
}

// NewFeed creates a feed for the given ws:// URL.
func NewFeed(url string, m *Monitor, logger *slog.Logger) *Feed {
	return &Feed{url: url, monitor: m, logger: logger}
}

// Run consumes the feed until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.consume(ctx); err != nil {
			f.logger.Error("feed disconnected", "url", f.url, "err", err)
		}
		f.monitor.SetConnected(false)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (f *Feed) consume(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.url, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()
	f.monitor.SetConnected(true)
	f.logger.Info("feed connected", "url", f.url)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg struct {
			Type string             `json:"type"`
			Data telemetry.Snapshot `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msg.Type == "telemetry_update" {
			f.monitor.Push(msg.Data)
		}
	}
}
