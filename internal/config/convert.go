package config

import (
	"time"

	"github.com/danmuck/lina/internal/client"
)

// ClientFileFrom renders a resolved client config back to its file shape.
func ClientFileFrom(cfg client.Config) ClientFile {
	return ClientFile{
		Host:           cfg.Host,
		Port:           cfg.Port,
		ConnectTimeout: formatDuration(cfg.Transport.ConnectTimeout),
		ReadTimeout:    formatDuration(cfg.Transport.ReadTimeout),
		WriteTimeout:   formatDuration(cfg.Transport.WriteTimeout),
		MaxBodyBytes:   cfg.Limits.MaxBodyBytes,
	}
}

func gatewayFileFrom(cfg GatewayConfig) gatewayFile {
	return gatewayFile{
		Name:        cfg.Name,
		Addr:        cfg.Addr,
		CorsOrigins: cfg.CorsOrigins,
		Lina:        ClientFileFrom(cfg.Client),
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.String()
}
