package descriptor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// EnvPrefix marks the homeserver's environment override dialect. Every
// variable under this prefix overrides the matching key of the native
// config file's [global] table.
const EnvPrefix = "CONDUIT_"

// Recognized override variables
const (
	EnvServerName            = "CONDUIT_SERVER_NAME"
	EnvAddress               = "CONDUIT_ADDRESS"
	EnvPort                  = "CONDUIT_PORT"
	EnvLog                   = "CONDUIT_LOG"
	EnvDatabasePath          = "CONDUIT_DATABASE_PATH"
	EnvMaxRequestSize        = "CONDUIT_MAX_REQUEST_SIZE"
	EnvMaxConcurrentRequests = "CONDUIT_MAX_CONCURRENT_REQUESTS"
	EnvAllowRegistration     = "CONDUIT_ALLOW_REGISTRATION"
	EnvAllowEncryption       = "CONDUIT_ALLOW_ENCRYPTION"
	EnvAllowFederation       = "CONDUIT_ALLOW_FEDERATION"
	EnvTrustedServers        = "CONDUIT_TRUSTED_SERVERS"
	EnvRegistrationToken     = "CONDUIT_REGISTRATION_TOKEN"
)

// Shipped defaults of the homeserver's container image
const (
	DefaultPort           = 6167
	DefaultDatabasePath   = "/var/lib/matrix-conduit/"
	DefaultMaxRequestSize = 20_000_000
	DefaultLog            = "info"
)

// Settings is the typed view of the homeserver configuration the descriptor
// overrides. Zero values mean "not set" except for the tri-state toggles,
// which use nil pointers.
type Settings struct {
	ServerName            string   `json:"serverName,omitempty"`
	Address               string   `json:"address,omitempty"`
	Port                  int      `json:"port,omitempty"`
	Log                   string   `json:"log,omitempty"`
	DatabasePath          string   `json:"databasePath,omitempty"`
	MaxRequestSize        int64    `json:"maxRequestSize,omitempty"`
	MaxConcurrentRequests int      `json:"maxConcurrentRequests,omitempty"`
	AllowRegistration     *bool    `json:"allowRegistration,omitempty"`
	AllowEncryption       *bool    `json:"allowEncryption,omitempty"`
	AllowFederation       *bool    `json:"allowFederation,omitempty"`
	TrustedServers        []string `json:"trustedServers,omitempty"`
	RegistrationToken     string   `json:"registrationToken,omitempty"`
}

// Issue records an override variable that could not be interpreted.
type Issue struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Defaults returns the settings the container image ships with.
func Defaults() Settings {
	return Settings{
		Port:           DefaultPort,
		Log:            DefaultLog,
		DatabasePath:   DefaultDatabasePath,
		MaxRequestSize: DefaultMaxRequestSize,
		TrustedServers: []string{"matrix.org"},
	}
}

// ParseEnvironment interprets the override variables found in a service
// environment. Non-prefix variables are ignored; prefix variables that are
// unrecognized or carry unparseable values come back as issues.
func ParseEnvironment(env map[string]string) (Settings, []Issue) {
	var s Settings
	var issues []Issue

	// Deterministic issue order regardless of map iteration
	keys := make([]string, 0, len(env))
	for key := range env {
		if strings.HasPrefix(key, EnvPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := env[key]
		switch key {
		case EnvServerName:
			s.ServerName = value
		case EnvAddress:
			s.Address = value
		case EnvLog:
			s.Log = value
		case EnvDatabasePath:
			s.DatabasePath = value
		case EnvPort:
			port, err := strconv.Atoi(value)
			if err != nil {
				issues = append(issues, Issue{key, value, "not an integer"})
				continue
			}
			s.Port = port
		case EnvMaxRequestSize:
			size, err := ParseSize(value)
			if err != nil {
				issues = append(issues, Issue{key, value, err.Error()})
				continue
			}
			s.MaxRequestSize = size
		case EnvMaxConcurrentRequests:
			n, err := strconv.Atoi(value)
			if err != nil {
				issues = append(issues, Issue{key, value, "not an integer"})
				continue
			}
			s.MaxConcurrentRequests = n
		case EnvAllowRegistration, EnvAllowEncryption, EnvAllowFederation:
			b, err := parseBool(value)
			if err != nil {
				issues = append(issues, Issue{key, value, "not a boolean"})
				continue
			}
			switch key {
			case EnvAllowRegistration:
				s.AllowRegistration = &b
			case EnvAllowEncryption:
				s.AllowEncryption = &b
			case EnvAllowFederation:
				s.AllowFederation = &b
			}
		case EnvRegistrationToken:
			s.RegistrationToken = value
		case EnvTrustedServers:
			servers, err := parseServerList(value)
			if err != nil {
				issues = append(issues, Issue{key, value, err.Error()})
				continue
			}
			s.TrustedServers = servers
		default:
			issues = append(issues, Issue{key, value, "unrecognized override variable"})
		}
	}

	return s, issues
}

// Merge returns the receiver with every field the override sets replaced.
// Precedence: override wins, matching how the server layers env vars over
// its config file.
func (s Settings) Merge(override Settings) Settings {
	if override.ServerName != "" {
		s.ServerName = override.ServerName
	}
	if override.Address != "" {
		s.Address = override.Address
	}
	if override.Port != 0 {
		s.Port = override.Port
	}
	if override.Log != "" {
		s.Log = override.Log
	}
	if override.DatabasePath != "" {
		s.DatabasePath = override.DatabasePath
	}
	if override.MaxRequestSize != 0 {
		s.MaxRequestSize = override.MaxRequestSize
	}
	if override.MaxConcurrentRequests != 0 {
		s.MaxConcurrentRequests = override.MaxConcurrentRequests
	}
	if override.AllowRegistration != nil {
		s.AllowRegistration = override.AllowRegistration
	}
	if override.AllowEncryption != nil {
		s.AllowEncryption = override.AllowEncryption
	}
	if override.AllowFederation != nil {
		s.AllowFederation = override.AllowFederation
	}
	if override.TrustedServers != nil {
		s.TrustedServers = override.TrustedServers
	}
	if override.RegistrationToken != "" {
		s.RegistrationToken = override.RegistrationToken
	}
	return s
}

// Overrides renders the set fields back into override-variable form.
func (s Settings) Overrides() map[string]string {
	env := make(map[string]string)
	if s.ServerName != "" {
		env[EnvServerName] = s.ServerName
	}
	if s.Address != "" {
		env[EnvAddress] = s.Address
	}
	if s.Port != 0 {
		env[EnvPort] = strconv.Itoa(s.Port)
	}
	if s.Log != "" {
		env[EnvLog] = s.Log
	}
	if s.DatabasePath != "" {
		env[EnvDatabasePath] = s.DatabasePath
	}
	if s.MaxRequestSize != 0 {
		env[EnvMaxRequestSize] = strconv.FormatInt(s.MaxRequestSize, 10)
	}
	if s.MaxConcurrentRequests != 0 {
		env[EnvMaxConcurrentRequests] = strconv.Itoa(s.MaxConcurrentRequests)
	}
	if s.AllowRegistration != nil {
		env[EnvAllowRegistration] = strconv.FormatBool(*s.AllowRegistration)
	}
	if s.AllowEncryption != nil {
		env[EnvAllowEncryption] = strconv.FormatBool(*s.AllowEncryption)
	}
	if s.AllowFederation != nil {
		env[EnvAllowFederation] = strconv.FormatBool(*s.AllowFederation)
	}
	if s.TrustedServers != nil {
		encoded, err := json.Marshal(s.TrustedServers)
		if err == nil {
			env[EnvTrustedServers] = string(encoded)
		}
	}
	if s.RegistrationToken != "" {
		env[EnvRegistrationToken] = s.RegistrationToken
	}
	return env
}

// ParseSize interprets a max request size value: raw bytes with optional
// TOML-style underscore separators ("20_000_000"), or a human-readable size
// ("20m", "512kb").
func ParseSize(value string) (int64, error) {
	cleaned := strings.ReplaceAll(value, "_", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty size")
	}
	if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return n, nil
	}
	size, err := units.RAMInBytes(cleaned)
	if err != nil {
		return 0, fmt.Errorf("not a size: %q", value)
	}
	return size, nil
}

// logLevels are the levels the server's log filter accepts.
var logLevels = map[string]bool{
	"error": true, "warn": true, "info": true,
	"debug": true, "trace": true, "off": true,
}

// ValidLogFilter checks a log directive string. The server accepts either a
// bare level or a comma-separated filter of "target=level" directives, e.g.
// "warn,state_res=debug".
func ValidLogFilter(filter string) bool {
	if filter == "" {
		return false
	}
	for _, directive := range strings.Split(filter, ",") {
		directive = strings.TrimSpace(directive)
		level := directive
		if idx := strings.LastIndex(directive, "="); idx >= 0 {
			level = directive[idx+1:]
		}
		if !logLevels[strings.ToLower(level)] {
			return false
		}
	}
	return true
}

// ValidServerName checks the server name grammar: a DNS name or IP literal
// with an optional port. The server name is the federation identity and has
// no scheme or path.
func ValidServerName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.Contains(name, "://") || strings.ContainsAny(name, "/ ") {
		return false
	}
	host := name
	if idx := strings.LastIndex(name, ":"); idx >= 0 && !strings.Contains(name, "]") {
		port := name[idx+1:]
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
		host = name[:idx]
	}
	return host != ""
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", value)
}

// parseServerList accepts the JSON array form the server's env layer uses
// ('["matrix.org"]') or a plain comma-separated list.
func parseServerList(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") {
		var servers []string
		if err := json.Unmarshal([]byte(trimmed), &servers); err != nil {
			return nil, fmt.Errorf("not a server list: %v", err)
		}
		return servers, nil
	}
	var servers []string
	for _, s := range strings.Split(trimmed, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("empty server list")
	}
	return servers, nil
}
