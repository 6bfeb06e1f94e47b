package main

import (
	"context"
	"log"
	"os"

	"labloan-client/config"
	"labloan-client/internal/gateway"
	"labloan-client/internal/session"
)

func main() {
	logger := log.New(os.Stderr, "labloanctl ", log.LstdFlags)

	configPath := os.Getenv("LABLOAN_CONFIG")
	if configPath == "" {
		configPath = "labloan.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	store, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		logger.Fatalf("failed to open session store at %s: %v", cfg.Session.DBPath, err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
		store:  store,
		guard:  session.NewGuard(store),
		client: gateway.NewClient(&cfg.API, store),
	}

	if len(os.Args) < 2 {
		a.usage()
		os.Exit(2)
	}

	if err := a.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		a.fail(err)
	}
}
