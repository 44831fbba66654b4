// Package main starts the finderctl terminal client.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	finderctl "github.com/teamfinder/mlbb-finder/internal/cmd/finderctl"
	"github.com/teamfinder/mlbb-finder/internal/platform/config"
)

func main() {
	cfg, err := finderctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := finderctl.Run(ctx, cfg); err != nil {
		config.Exitf("finderctl: %v", err)
	}
}
