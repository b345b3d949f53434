// Package main is the entry point for the todocli CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todocli/internal/auth"
	"todocli/internal/backend"
	"todocli/internal/cli"
	"todocli/internal/commands"
	"todocli/internal/config"
	"todocli/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Every authenticated run resolves a token first: cached, refreshed or
	// obtained through the browser.
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		manager, err := auth.NewFromConfig(cfg, os.Stderr)
		if err != nil {
			return nil, err
		}
		token, err := manager.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		return backend.New(ctx, cfg, token)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
