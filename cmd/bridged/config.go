package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/neuro-synapse/bridged/internal/service"
)

type fileConfig struct {
	NodeID            string   `toml:"node_id"`
	ListenAddr        string   `toml:"listen_addr"`
	CORSOrigins       []string `toml:"cors_origins"`
	SyncInterval      string   `toml:"sync_interval"`
	InboxLimit        int      `toml:"inbox_limit"`
	CleanupGrace      string   `toml:"cleanup_grace"`
	ActionTimeout     string   `toml:"action_timeout"`
	ChatTimeout       string   `toml:"chat_timeout"`
	HeartbeatInterval string   `toml:"heartbeat_interval"`
}

func loadServiceConfig(path string) (service.Config, error) {
	cfg := service.DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return service.Config{}, fmt.Errorf("load bridged config: %w", err)
	}

	if meta.IsDefined("node_id") {
		if id := strings.TrimSpace(raw.NodeID); id != "" {
			cfg.NodeID = id
		}
	}

	if meta.IsDefined("listen_addr") {
		if addr := strings.TrimSpace(raw.ListenAddr); addr != "" {
			cfg.ListenAddr = addr
		}
	}

	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}

	if meta.IsDefined("sync_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SyncInterval))
		if err != nil {
			return service.Config{}, fmt.Errorf("parse sync_interval: %w", err)
		}
		cfg.SyncInterval = d
	}

	if meta.IsDefined("inbox_limit") {
		if raw.InboxLimit > 0 {
			cfg.InboxLimit = raw.InboxLimit
		}
	}

	if meta.IsDefined("cleanup_grace") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CleanupGrace))
		if err != nil {
			return service.Config{}, fmt.Errorf("parse cleanup_grace: %w", err)
		}
		cfg.CleanupGrace = d
	}

	if meta.IsDefined("action_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ActionTimeout))
		if err != nil {
			return service.Config{}, fmt.Errorf("parse action_timeout: %w", err)
		}
		cfg.ActionTimeout = d
	}

	if meta.IsDefined("chat_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ChatTimeout))
		if err != nil {
			return service.Config{}, fmt.Errorf("parse chat_timeout: %w", err)
		}
		cfg.ChatTimeout = d
	}

	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return service.Config{}, fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
