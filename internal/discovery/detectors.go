package discovery

import (
	"bytes"
	"path"
	"strings"
)

// ComposeDetector recognizes the orchestrator's descriptor files by name
type ComposeDetector struct{}

func (d *ComposeDetector) Name() string {
	return TypeCompose
}

var composeNames = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

func (d *ComposeDetector) Detect(filename string, read ReadFunc) bool {
	lower := strings.ToLower(filename)
	for _, name := range composeNames {
		if lower == name {
			return true
		}
	}
	// override files like docker-compose.override.yml
	if strings.HasPrefix(lower, "docker-compose.") && isYAML(lower) {
		return true
	}
	return false
}

// ServerConfigDetector recognizes the homeserver's native TOML config.
// "conduit.toml" matches by name; any other TOML file matches only when its
// content declares a [global] table with a server_name key.
type ServerConfigDetector struct{}

func (d *ServerConfigDetector) Name() string {
	return TypeServerConfig
}

func (d *ServerConfigDetector) Detect(filename string, read ReadFunc) bool {
	lower := strings.ToLower(filename)
	if !strings.HasSuffix(lower, ".toml") {
		return false
	}
	if lower == "conduit.toml" {
		return true
	}

	content, err := read()
	if err != nil {
		return false
	}
	return bytes.Contains(content, []byte("[global]")) &&
		bytes.Contains(content, []byte("server_name"))
}

// DotenvDetector recognizes environment override files
type DotenvDetector struct{}

func (d *DotenvDetector) Name() string {
	return TypeDotenv
}

func (d *DotenvDetector) Detect(filename string, read ReadFunc) bool {
	base := strings.ToLower(path.Base(filename))
	return strings.HasPrefix(base, ".env") || strings.HasSuffix(base, ".env")
}

// DockerfileDetector recognizes build-context evidence for services that
// build from source instead of a published image
type DockerfileDetector struct{}

func (d *DockerfileDetector) Name() string {
	return TypeDockerfile
}

func (d *DockerfileDetector) Detect(filename string, read ReadFunc) bool {
	lower := strings.ToLower(filename)
	return lower == "dockerfile" || strings.HasPrefix(lower, "dockerfile.")
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
