package parser

import "testing"

const conduitToml = `[global]
server_name = "matrix.example.com"
database_path = "/var/lib/matrix-conduit/"
port = 6167
max_request_size = 20_000_000
allow_registration = false
allow_federation = true
trusted_servers = ["matrix.org"]
log = "warn,state_res=debug"
`

func TestParseServerConfig(t *testing.T) {
	s, err := ParseServerConfig([]byte(conduitToml))
	if err != nil {
		t.Fatalf("ParseServerConfig failed: %v", err)
	}

	if s.ServerName != "matrix.example.com" {
		t.Errorf("ServerName = %q", s.ServerName)
	}
	if s.Port != 6167 {
		t.Errorf("Port = %d", s.Port)
	}
	if s.MaxRequestSize != 20_000_000 {
		t.Errorf("MaxRequestSize = %d", s.MaxRequestSize)
	}
	if s.AllowRegistration == nil || *s.AllowRegistration {
		t.Error("AllowRegistration should be false")
	}
	if s.AllowFederation == nil || !*s.AllowFederation {
		t.Error("AllowFederation should be true")
	}
	if s.AllowEncryption != nil {
		t.Error("AllowEncryption should stay unset")
	}
	if s.Log != "warn,state_res=debug" {
		t.Errorf("Log = %q", s.Log)
	}
}

func TestParseServerConfigMalformed(t *testing.T) {
	if _, err := ParseServerConfig([]byte("[global\nserver_name =")); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}
