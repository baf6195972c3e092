package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/lina/internal/client"
)

// Template renders the default config for kind ("client" or "gateway").
func Template(kind string) (string, error) {
	var v any
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client":
		v = ClientFileFrom(client.DefaultConfig())
	case "gateway":
		gw := DefaultGatewayConfig()
		gw.CorsOrigins = []string{"http://localhost:3000"}
		v = gatewayFileFrom(gw)
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return buf.String(), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
