package render

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/matrixops/homeport/internal/descriptor"
)

// tomlGlobal mirrors the [global] table of the homeserver's native config
type tomlGlobal struct {
	ServerName            string   `toml:"server_name"`
	Address               string   `toml:"address,omitempty"`
	Port                  int      `toml:"port"`
	Log                   string   `toml:"log,omitempty"`
	DatabasePath          string   `toml:"database_path"`
	MaxRequestSize        int64    `toml:"max_request_size"`
	MaxConcurrentRequests int      `toml:"max_concurrent_requests,omitempty"`
	AllowRegistration     bool     `toml:"allow_registration"`
	AllowEncryption       bool     `toml:"allow_encryption"`
	AllowFederation       bool     `toml:"allow_federation"`
	TrustedServers        []string `toml:"trusted_servers,omitempty"`
	RegistrationToken     string   `toml:"registration_token,omitempty"`
}

type tomlFile struct {
	Global tomlGlobal `toml:"global"`
}

// ServerConfig renders the homeserver's native TOML config for the given
// settings, layered over the shipped defaults.
func ServerConfig(settings descriptor.Settings) ([]byte, error) {
	s := descriptor.Defaults().Merge(settings)
	if s.ServerName == "" {
		return nil, fmt.Errorf("server name is required")
	}

	global := tomlGlobal{
		ServerName:            s.ServerName,
		Address:               s.Address,
		Port:                  s.Port,
		Log:                   s.Log,
		DatabasePath:          s.DatabasePath,
		MaxRequestSize:        s.MaxRequestSize,
		MaxConcurrentRequests: s.MaxConcurrentRequests,
		TrustedServers:        s.TrustedServers,
		RegistrationToken:     s.RegistrationToken,
	}
	if s.AllowRegistration != nil {
		global.AllowRegistration = *s.AllowRegistration
	}
	if s.AllowEncryption != nil {
		global.AllowEncryption = *s.AllowEncryption
	}
	if s.AllowFederation != nil {
		global.AllowFederation = *s.AllowFederation
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tomlFile{Global: global}); err != nil {
		return nil, fmt.Errorf("failed to render server config: %w", err)
	}
	return buf.Bytes(), nil
}
