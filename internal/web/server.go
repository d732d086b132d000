package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/hub"
	"github.com/neuro-synapse/bridged/internal/mailbox"
	"github.com/neuro-synapse/bridged/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the HTTP/WebSocket boundary: it upgrades client connections,
// runs their read loops into the protocol router, and exposes the health,
// metrics, and dashboard surface.
type Server struct {
	nodeID   string
	addr     string
	router   *hub.Router
	registry *hub.Registry
	table    *hub.Table
	executor *hub.Executor
	store    mailbox.Store
	engine   *gin.Engine
	started  time.Time
}

// NewServer builds the gin engine with the coordinator routes installed.
func NewServer(nodeID, addr string, corsOrigins []string, router *hub.Router, registry *hub.Registry, table *hub.Table, executor *hub.Executor, store mailbox.Store) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(observability.RequestLogger(log.Logger))
	engine.Use(observability.RequestMetricsMiddleware(nodeID))
	engine.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = engine.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		nodeID:   nodeID,
		addr:     addr,
		router:   router,
		registry: registry,
		table:    table,
		executor: executor,
		store:    store,
		engine:   engine,
		started:  time.Now(),
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine for httptest harnesses.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"node":    s.nodeID,
			"version": "0.1.0",
		})
	})

	s.engine.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"uptime": time.Since(s.started).String(),
			"node":   s.nodeID,
		})
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/dashboard", func(c *gin.Context) {
		recent, err := s.store.Recent(c.Request.Context(), 10)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"sessions": s.table.IDs(),
			"clients":  s.registry.Count(),
			"inbox":    recent,
		})
	})

	s.engine.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"node":     s.nodeID,
			"clients":  s.registry.Count(),
			"sessions": s.table.Len(),
			"uptime":   time.Since(s.started).String(),
		})
	})

	s.engine.GET("/ws", s.handleWS)
}

// handleWS upgrades one connection and pumps its frames into the router
// until the peer goes away.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("web.server websocket upgrade failed")
		return
	}

	adapter := newWSConn(conn)
	client := s.router.HandleConnect(adapter)
	defer func() {
		s.router.HandleDisconnect(client)
		adapter.close()
	}()

	ctx := c.Request.Context()
	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Str("client_id", client.ID).Err(err).Msg("web.server read loop ended")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.router.HandleFrame(ctx, client, raw)
	}
}

// Serve runs the HTTP listener until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", s.addr).Msg("web.server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
