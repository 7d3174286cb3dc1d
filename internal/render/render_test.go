package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matrixops/homeport/internal/descriptor"
	"github.com/matrixops/homeport/internal/discovery"
	"github.com/matrixops/homeport/internal/filesystems"
	"github.com/matrixops/homeport/internal/parser"
	"github.com/matrixops/homeport/internal/validate"
)

func TestComposeRequiresServerName(t *testing.T) {
	if _, err := Compose(Options{}); err == nil {
		t.Fatal("expected error without a server name")
	}
}

func TestComposeRoundTrip(t *testing.T) {
	reg := false
	out, err := Compose(Options{
		Settings: descriptor.Settings{
			ServerName:        "matrix.example.com",
			AllowRegistration: &reg,
		},
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("deploy/docker-compose.yml", out)

	aggregator := parser.NewAggregator(mfs)
	deployments, err := aggregator.Aggregate(context.Background(), []discovery.ConfigFile{
		{Path: "deploy/docker-compose.yml", Type: discovery.TypeCompose},
	})
	if err != nil {
		t.Fatalf("rendered descriptor does not parse: %v", err)
	}
	if len(deployments) != 1 {
		t.Fatalf("got %d deployments", len(deployments))
	}

	dep := deployments[0]
	hs := dep.Descriptor.Homeserver()
	if hs == nil {
		t.Fatal("rendered descriptor has no homeserver service")
	}
	if hs.Name != "homeserver" {
		t.Errorf("service name = %q", hs.Name)
	}
	if hs.Restart != descriptor.RestartUnlessStopped {
		t.Errorf("restart = %q", hs.Restart)
	}
	if len(hs.Ports) != 1 || hs.Ports[0].Published != 8448 || hs.Ports[0].Target != descriptor.DefaultPort {
		t.Errorf("ports = %+v", hs.Ports)
	}

	if dep.Settings.ServerName != "matrix.example.com" {
		t.Errorf("ServerName = %q", dep.Settings.ServerName)
	}
	if dep.Settings.AllowRegistration == nil || *dep.Settings.AllowRegistration {
		t.Error("AllowRegistration override lost")
	}

	// a freshly generated descriptor must pass its own validator
	report := validate.New().Validate(dep)
	if report.HasErrors() {
		t.Errorf("rendered descriptor fails validation: %+v", report.Findings)
	}
}

func TestComposeCustomOptions(t *testing.T) {
	out, err := Compose(Options{
		ServiceName:   "matrix",
		Image:         "matrixconduit/matrix-conduit:v0.6.0",
		VolumeName:    "conduit-data",
		PublishedPort: 443,
		Settings: descriptor.Settings{
			ServerName: "example.org",
			Port:       8008,
		},
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	text := string(out)
	for _, want := range []string{"matrix:", "matrixconduit/matrix-conduit:v0.6.0", "443:8008", "conduit-data:"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestServerConfigRoundTrip(t *testing.T) {
	fed := false
	out, err := ServerConfig(descriptor.Settings{
		ServerName:      "matrix.example.com",
		Port:            8008,
		AllowFederation: &fed,
		TrustedServers:  []string{"matrix.org"},
	})
	if err != nil {
		t.Fatalf("ServerConfig failed: %v", err)
	}

	parsed, err := parser.ParseServerConfig(out)
	if err != nil {
		t.Fatalf("rendered config does not parse: %v", err)
	}
	if parsed.ServerName != "matrix.example.com" {
		t.Errorf("ServerName = %q", parsed.ServerName)
	}
	if parsed.Port != 8008 {
		t.Errorf("Port = %d", parsed.Port)
	}
	if parsed.AllowFederation == nil || *parsed.AllowFederation {
		t.Error("AllowFederation lost")
	}
	if parsed.DatabasePath != descriptor.DefaultDatabasePath {
		t.Errorf("DatabasePath = %q, defaults should fill it", parsed.DatabasePath)
	}
}

func TestServerConfigRequiresServerName(t *testing.T) {
	if _, err := ServerConfig(descriptor.Settings{}); err == nil {
		t.Fatal("expected error without a server name")
	}
}
