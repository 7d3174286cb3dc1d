package parser

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/matrixops/homeport/internal/descriptor"
)

// serverConfigFile mirrors the homeserver's native TOML config. Only the
// [global] table matters here; the descriptor's env vars override it
// key for key.
type serverConfigFile struct {
	Global serverConfigGlobal `toml:"global"`
}

type serverConfigGlobal struct {
	ServerName            string   `toml:"server_name"`
	Address               string   `toml:"address"`
	Port                  int      `toml:"port"`
	Log                   string   `toml:"log"`
	DatabasePath          string   `toml:"database_path"`
	MaxRequestSize        int64    `toml:"max_request_size"`
	MaxConcurrentRequests int      `toml:"max_concurrent_requests"`
	AllowRegistration     *bool    `toml:"allow_registration"`
	AllowEncryption       *bool    `toml:"allow_encryption"`
	AllowFederation       *bool    `toml:"allow_federation"`
	TrustedServers        []string `toml:"trusted_servers"`
	RegistrationToken     string   `toml:"registration_token"`
}

// ParseServerConfig parses the homeserver's native TOML config into the
// shared settings model.
func ParseServerConfig(content []byte) (descriptor.Settings, error) {
	var file serverConfigFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return descriptor.Settings{}, fmt.Errorf("failed to parse server config: %w", err)
	}

	g := file.Global
	return descriptor.Settings{
		ServerName:            g.ServerName,
		Address:               g.Address,
		Port:                  g.Port,
		Log:                   g.Log,
		DatabasePath:          g.DatabasePath,
		MaxRequestSize:        g.MaxRequestSize,
		MaxConcurrentRequests: g.MaxConcurrentRequests,
		AllowRegistration:     g.AllowRegistration,
		AllowEncryption:       g.AllowEncryption,
		AllowFederation:       g.AllowFederation,
		TrustedServers:        g.TrustedServers,
		RegistrationToken:     g.RegistrationToken,
	}, nil
}
