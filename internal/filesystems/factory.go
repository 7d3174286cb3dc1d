package filesystems

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// NewFileSystem creates a filesystem implementation for the given URI.
// Plain paths and file:// URIs map to the local filesystem; the scheme
// switch leaves room for remote backends.
func NewFileSystem(uri string) (FileSystem, error) {
	if !strings.Contains(uri, "://") {
		if _, err := filepath.Abs(uri); err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", uri, err)
		}
		return NewLocalFS(), nil
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %s: %w", uri, err)
	}

	switch parsed.Scheme {
	case "file":
		return NewLocalFS(), nil
	default:
		return nil, fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}
}

// BasePath returns the walkable root path for the given URI.
func BasePath(uri string) string {
	if !strings.Contains(uri, "://") {
		return uri
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	if parsed.Scheme == "file" {
		return parsed.Path
	}
	return uri
}
