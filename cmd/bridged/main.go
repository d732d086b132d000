package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/neuro-synapse/bridged/internal/agent"
	"github.com/neuro-synapse/bridged/internal/logging"
	"github.com/neuro-synapse/bridged/internal/mailbox"
	"github.com/neuro-synapse/bridged/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to bridged TOML config")
	seedSample := flag.Bool("seed-sample", false, "seed the in-memory mailbox with sample messages")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadServiceConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridged: %v\n", err)
		os.Exit(1)
	}

	store := mailbox.NewMemoryStore()
	if *seedSample {
		mailbox.SeedSample(store, time.Now())
	}

	svc := service.New(cfg, store, agent.NewScriptedExecutor())
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridged: %v\n", err)
		os.Exit(1)
	}
}
