package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/lina/internal/client"
)

const (
	EnvHost = "LINASTORE_IP"
	EnvPort = "LINASTORE_ADVANCED_PORT"
)

// ClientFile is the on-disk shape of a LiNa server target.
type ClientFile struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	MaxBodyBytes   uint64 `toml:"max_body_bytes"`
}

type gatewayFile struct {
	Name        string     `toml:"name"`
	Addr        string     `toml:"addr"`
	CorsOrigins []string   `toml:"cors_origins"`
	Lina        ClientFile `toml:"lina"`
}

// GatewayConfig is the resolved HTTP gateway configuration.
type GatewayConfig struct {
	Name        string
	Addr        string
	CorsOrigins []string
	Client      client.Config
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Name:   "linagw",
		Addr:   ":8086",
		Client: client.DefaultConfig(),
	}
}

// LoadClientConfig resolves defaults, then the file (when path is set),
// then environment overrides.
func LoadClientConfig(path string) (client.Config, error) {
	cfg := client.DefaultConfig()
	if strings.TrimSpace(path) != "" {
		var raw ClientFile
		meta, err := decodeFile(path, &raw)
		if err != nil {
			return client.Config{}, err
		}
		if err := applyClientFile(&cfg, raw, meta); err != nil {
			return client.Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return client.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return client.Config{}, fmt.Errorf("client config invalid: %w", err)
	}
	return cfg, nil
}

func LoadGatewayConfig(path string) (GatewayConfig, error) {
	cfg := DefaultGatewayConfig()
	if strings.TrimSpace(path) != "" {
		var raw gatewayFile
		meta, err := decodeFile(path, &raw)
		if err != nil {
			return GatewayConfig{}, err
		}
		if meta.IsDefined("name") {
			cfg.Name = strings.TrimSpace(raw.Name)
		}
		if meta.IsDefined("addr") {
			cfg.Addr = strings.TrimSpace(raw.Addr)
		}
		if meta.IsDefined("cors_origins") {
			cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
		}
		if err := applyClientFile(&cfg.Client, raw.Lina, meta, "lina"); err != nil {
			return GatewayConfig{}, err
		}
	}
	if err := applyEnvOverrides(&cfg.Client); err != nil {
		return GatewayConfig{}, err
	}
	if err := ValidateGatewayConfig(cfg); err != nil {
		return GatewayConfig{}, err
	}
	return cfg, nil
}

func ValidateGatewayConfig(cfg GatewayConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("gateway config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("gateway config missing addr")
	}
	if err := cfg.Client.Validate(); err != nil {
		return fmt.Errorf("gateway lina target invalid: %w", err)
	}
	return nil
}

func decodeFile(path string, out any) (toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return toml.MetaData{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return toml.MetaData{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}
	return meta, nil
}

func applyClientFile(cfg *client.Config, raw ClientFile, meta toml.MetaData, prefix ...string) error {
	defined := func(key string) bool {
		return meta.IsDefined(append(append([]string{}, prefix...), key)...)
	}
	if defined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if defined("port") {
		cfg.Port = raw.Port
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Transport.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Transport.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Transport.WriteTimeout},
	}
	for _, d := range durations {
		if !defined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if defined("max_body_bytes") {
		cfg.Limits.MaxBodyBytes = raw.MaxBodyBytes
	}
	return nil
}

func applyEnvOverrides(cfg *client.Config) error {
	if host := strings.TrimSpace(os.Getenv(EnvHost)); host != "" {
		cfg.Host = host
	}
	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
