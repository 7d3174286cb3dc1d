package envscan

import (
	"context"
	"testing"

	"github.com/matrixops/homeport/internal/discovery"
	"github.com/matrixops/homeport/internal/filesystems"
)

func TestCollectFromDiscoveredConfigs(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("deploy/docker-compose.yml", []byte(`services:
  homeserver:
    image: matrixconduit/matrix-conduit:latest
    environment:
      CONDUIT_SERVER_NAME: matrix.example.com
`))
	mfs.AddFile("deploy/.env", []byte("ADMIN_TOKEN=s3cret\n"))
	mfs.AddFile("deploy/Dockerfile", []byte("FROM alpine:3.20\nENV CONDUIT_LOG=warn\n"))

	configs, err := discovery.NewScanner(mfs).Scan(context.Background(), ".")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	results, err := Collect(context.Background(), mfs, configs)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	byName := make(map[string]Result)
	for _, r := range results {
		byName[r.VarName] = r
	}

	// every detected file kind must contribute to the report
	if byName["CONDUIT_SERVER_NAME"].Source != "compose:deploy/docker-compose.yml" {
		t.Errorf("CONDUIT_SERVER_NAME source = %q", byName["CONDUIT_SERVER_NAME"].Source)
	}
	if byName["ADMIN_TOKEN"].Source != "dotenv:deploy/.env" {
		t.Errorf("ADMIN_TOKEN source = %q", byName["ADMIN_TOKEN"].Source)
	}
	if byName["CONDUIT_LOG"].Source != "dockerfile:deploy/Dockerfile" {
		t.Errorf("CONDUIT_LOG source = %q", byName["CONDUIT_LOG"].Source)
	}

	// sorted by name
	for i := 1; i < len(results); i++ {
		if results[i-1].VarName > results[i].VarName {
			t.Fatalf("results not sorted: %v before %v", results[i-1].VarName, results[i].VarName)
		}
	}
}

func TestCollectSkipsUnreadableFiles(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("deploy/.env", []byte("CONDUIT_PORT=6167\n"))

	configs := []discovery.ConfigFile{
		{Path: "deploy/.env", Type: discovery.TypeDotenv},
		{Path: "deploy/missing.env", Type: discovery.TypeDotenv},
	}

	results, err := Collect(context.Background(), mfs, configs)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(results) != 1 || results[0].VarName != "CONDUIT_PORT" {
		t.Fatalf("results = %v", results)
	}
}
