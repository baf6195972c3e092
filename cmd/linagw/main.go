// Command linagw serves the LiNa HTTP gateway.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/lina/internal/config"
	"github.com/danmuck/lina/internal/gateway"
	"github.com/danmuck/lina/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "gateway config file (TOML)")
	flag.Parse()

	logger := observability.InitLogger("linagw")
	cfg, err := config.LoadGatewayConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("config load failed")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("name", cfg.Name).
		Str("addr", cfg.Addr).
		Str("upstream", cfg.Client.Address()).
		Msg("linagw starting")
	if err := gateway.New(cfg).Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("linagw exited")
		os.Exit(1)
	}
}
