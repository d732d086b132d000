// Package service owns the coordinator process lifecycle: wiring the hub
// components to the store, AI boundary, and web transport, then running them
// under signal-driven shutdown with a periodic status heartbeat.
package service

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/agent"
	"github.com/neuro-synapse/bridged/internal/hub"
	"github.com/neuro-synapse/bridged/internal/mailbox"
	"github.com/neuro-synapse/bridged/internal/web"
)

var ErrInvalidHeartbeatInterval = errors.New("service: invalid heartbeat interval")

// Config holds coordinator runtime defaults.
type Config struct {
	NodeID            string
	ListenAddr        string
	CORSOrigins       []string
	SyncInterval      time.Duration
	InboxLimit        int
	CleanupGrace      time.Duration
	ActionTimeout     time.Duration
	ChatTimeout       time.Duration
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the standalone runtime defaults.
func DefaultConfig() Config {
	return Config{
		NodeID:            "bridged.local",
		ListenAddr:        ":8080",
		SyncInterval:      5 * time.Second,
		InboxLimit:        30,
		CleanupGrace:      60 * time.Second,
		ActionTimeout:     30 * time.Second,
		ChatTimeout:       30 * time.Second,
		HeartbeatInterval: 15 * time.Second,
	}
}

// Service is one wired coordinator instance.
type Service struct {
	cfg      Config
	registry *hub.Registry
	table    *hub.Table
	sync     *hub.Synchronizer
	executor *hub.Executor
	router   *hub.Router
	server   *web.Server
}

// New wires the full coordinator against the given store and AI boundary.
func New(cfg Config, store mailbox.Store, ai agent.Executor) *Service {
	registry := hub.NewRegistry()
	table := hub.NewTable(registry, cfg.CleanupGrace)
	synchronizer := hub.NewSynchronizer(store, registry, cfg.SyncInterval, cfg.InboxLimit)
	executor := hub.NewExecutor(table, store, ai, synchronizer, cfg.ActionTimeout)
	table.SetActivityProbe(executor)
	router := hub.NewRouter(registry, table, synchronizer, executor, ai, cfg.ChatTimeout)
	executor.SetInstanceSink(router)
	server := web.NewServer(cfg.NodeID, cfg.ListenAddr, cfg.CORSOrigins, router, registry, table, executor, store)

	return &Service{
		cfg:      cfg,
		registry: registry,
		table:    table,
		sync:     synchronizer,
		executor: executor,
		router:   router,
		server:   server,
	}
}

// Executor exposes the action executor for instance registration.
func (s *Service) Executor() *hub.Executor {
	return s.executor
}

// Run blocks until process signal shutdown or a fatal listener error.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.serve(ctx)
}

// serve runs the listener, synchronizer, and heartbeat loop under ctx.
func (s *Service) serve(ctx context.Context) error {
	if s.cfg.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.server.Serve(ctx)
	}()
	go s.sync.Run(ctx)

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	log.Info().
		Str("node_id", s.cfg.NodeID).
		Str("addr", s.cfg.ListenAddr).
		Msg("service ready")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("service shutdown")
			return nil
		case err := <-serverErr:
			if err != nil {
				return err
			}
		case <-ticker.C:
			log.Info().
				Str("node_id", s.cfg.NodeID).
				Int("clients", s.registry.Count()).
				Int("sessions", s.table.Len()).
				Msg("service heartbeat")
		}
	}
}
