package discovery

import (
	"context"
	"testing"

	"github.com/matrixops/homeport/internal/filesystems"
)

func scanTypes(t *testing.T, mfs *filesystems.MemoryFS) map[string]string {
	t.Helper()

	scanner := NewScanner(mfs)
	configs, err := scanner.Scan(context.Background(), ".")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	byPath := make(map[string]string)
	for _, config := range configs {
		byPath[config.Path] = config.Type
	}
	return byPath
}

func TestScanFindsConfigKinds(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("docker-compose.yml", []byte("services: {}"))
	mfs.AddFile("conduit.toml", []byte("[global]\nserver_name = \"x\"\n"))
	mfs.AddFile(".env", []byte("CONDUIT_PORT=6167\n"))
	mfs.AddFile("Dockerfile", []byte("FROM alpine\n"))
	mfs.AddFile("README.md", []byte("# readme\n"))

	byPath := scanTypes(t, mfs)

	want := map[string]string{
		"docker-compose.yml": TypeCompose,
		"conduit.toml":       TypeServerConfig,
		".env":               TypeDotenv,
		"Dockerfile":         TypeDockerfile,
	}
	for path, wantType := range want {
		if byPath[path] != wantType {
			t.Errorf("%s detected as %q, want %q", path, byPath[path], wantType)
		}
	}
	if _, ok := byPath["README.md"]; ok {
		t.Error("README.md should not be detected")
	}
}

func TestScanSniffsServerConfigContent(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("config/settings.toml", []byte("[global]\nserver_name = \"matrix.example.com\"\n"))
	mfs.AddFile("config/other.toml", []byte("[tool]\nname = \"x\"\n"))

	byPath := scanTypes(t, mfs)

	if byPath["config/settings.toml"] != TypeServerConfig {
		t.Errorf("settings.toml not sniffed as server config: %v", byPath)
	}
	if _, ok := byPath["config/other.toml"]; ok {
		t.Error("other.toml should not be detected")
	}
}

func TestScanIgnoresVendorTrees(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("node_modules/pkg/docker-compose.yml", []byte("services: {}"))
	mfs.AddFile(".git/docker-compose.yml", []byte("services: {}"))
	mfs.AddFile("deploy/docker-compose.yml", []byte("services: {}"))

	byPath := scanTypes(t, mfs)

	if len(byPath) != 1 {
		t.Fatalf("got %v, want only deploy/docker-compose.yml", byPath)
	}
	if byPath["deploy/docker-compose.yml"] != TypeCompose {
		t.Errorf("deploy descriptor missing: %v", byPath)
	}
}

func TestScanBoundedDepth(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddFile("a/b/c/d/e/f/docker-compose.yml", []byte("services: {}"))
	mfs.AddFile("a/docker-compose.yml", []byte("services: {}"))

	byPath := scanTypes(t, mfs)

	if _, ok := byPath["a/docker-compose.yml"]; !ok {
		t.Error("shallow descriptor should be found")
	}
	if _, ok := byPath["a/b/c/d/e/f/docker-compose.yml"]; ok {
		t.Error("descriptor beyond max depth should be skipped")
	}
}

func TestComposeOverrideFiles(t *testing.T) {
	d := &ComposeDetector{}
	for _, name := range []string{"docker-compose.yml", "compose.yaml", "docker-compose.override.yml"} {
		if !d.Detect(name, nil) {
			t.Errorf("Detect(%q) = false", name)
		}
	}
	for _, name := range []string{"compose.json", "docker-compose.txt", "other.yml"} {
		if d.Detect(name, nil) {
			t.Errorf("Detect(%q) = true", name)
		}
	}
}
