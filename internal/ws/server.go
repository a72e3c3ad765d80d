package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fieldmetrics-dashboard/internal/aggregator"
	"fieldmetrics-dashboard/internal/config"
	"fieldmetrics-dashboard/internal/daterange"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	Agg    *aggregator.Aggregator
	Logger *zap.Logger
	Config config.Config

	ctx     context.Context
	cancel  context.CancelFunc
	started sync.Once
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func New(agg *aggregator.Aggregator, logger *zap.Logger, cfg config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		Agg:     agg,
		Logger:  logger,
		Config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*wsClient]struct{}),
	}
}

// Close stops the poll loop. Connected clients are dropped by the http
// server's own shutdown.
func (s *Server) Close() {
	s.cancel()
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

type snapshotMessage struct {
	Type     string              `json:"type"`
	Snapshot aggregator.Snapshot `json:"snapshot"`
}

// DashboardWS streams KPI snapshots. The client receives the latest snapshot
// on connect, then a fresh one every poll interval while connected.
func (s *Server) DashboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn}
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	s.ensureStarted()

	if snap, ok := s.Agg.Latest(); ok {
		_ = client.writeJSON(snapshotMessage{Type: "kpi.snapshot", Snapshot: snap})
	}

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	// Read loop only to detect close; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) ensureStarted() {
	s.started.Do(func() {
		go s.pollLoop(s.ctx)
	})
}

func (s *Server) pollLoop(ctx context.Context) {
	interval := s.Config.WSPollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.clientCount() == 0 {
			continue
		}

		dr := daterange.Resolve("month", time.Now(), s.Config.WeekMode)
		snap := s.Agg.KPIs(ctx, dr)
		s.broadcast(snapshotMessage{Type: "kpi.snapshot", Snapshot: snap})
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcast(message any) {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
		}
	}
}
