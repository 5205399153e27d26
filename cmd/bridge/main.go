// Package main starts the ballpit bridge process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ballpit/bridge/internal/app"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the bridge TOML config")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{ConfigPath: configPath}); err != nil {
		log.Fatalf("bridge failed: %v", err)
	}
}
