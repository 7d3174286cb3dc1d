package discovery

import (
	"context"
	"strings"

	"github.com/matrixops/homeport/internal/filesystems"
)

// Config types detectors report
const (
	TypeCompose      = "compose"
	TypeServerConfig = "server-config"
	TypeDotenv       = "dotenv"
	TypeDockerfile   = "dockerfile"
)

// ConfigFile is a discovered deployment configuration file
type ConfigFile struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Detector recognizes one kind of configuration file. ReadFunc lets
// content-sniffing detectors avoid reading files they reject by name.
type Detector interface {
	Name() string
	Detect(filename string, read ReadFunc) bool
}

// ReadFunc reads the file under consideration on demand
type ReadFunc func() ([]byte, error)

// Scanner walks a source tree through the filesystem abstraction and
// collects configuration files recognized by its detectors.
type Scanner struct {
	filesystem filesystems.FileSystem
	detectors  []Detector
	maxDepth   int
}

func NewScanner(filesystem filesystems.FileSystem, detectors ...Detector) *Scanner {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Scanner{
		filesystem: filesystem,
		detectors:  detectors,
		maxDepth:   4,
	}
}

func DefaultDetectors() []Detector {
	return []Detector{
		&ComposeDetector{},
		&ServerConfigDetector{},
		&DotenvDetector{},
		&DockerfileDetector{},
	}
}

// directories that never hold deployment descriptors
var excludeDirs = []string{
	"node_modules", "vendor", "target", "dist", "build", "out",
	"tmp", "temp", "cache", "logs", "coverage",
}

func (s *Scanner) shouldIgnoreDir(name string) bool {
	for _, pattern := range excludeDirs {
		if strings.EqualFold(name, pattern) {
			return true
		}
	}
	// skip dotdirs and underscore-prefixed trees, but not "." itself
	if strings.HasPrefix(name, "_") || (strings.HasPrefix(name, ".") && len(name) > 1) {
		return true
	}
	return false
}

type walkItem struct {
	path  string
	depth int
}

// Scan walks rootPath iteratively and returns every recognized config
// file. First matching detector wins per file.
func (s *Scanner) Scan(ctx context.Context, rootPath string) ([]ConfigFile, error) {
	var configs []ConfigFile

	stack := []walkItem{{path: rootPath, depth: 0}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if current.depth > s.maxDepth {
			continue
		}
		if current.path != rootPath && s.shouldIgnoreDir(s.filesystem.Base(current.path)) {
			continue
		}

		for entry, err := range s.filesystem.ReadDir(current.path) {
			if err != nil {
				// unreadable directories are not fatal to the scan
				continue
			}

			fullPath := s.filesystem.Join(current.path, entry.Name())
			if entry.IsDir() {
				stack = append(stack, walkItem{path: fullPath, depth: current.depth + 1})
				continue
			}

			read := func() ([]byte, error) {
				return s.filesystem.ReadFile(fullPath)
			}
			for _, detector := range s.detectors {
				if detector.Detect(entry.Name(), read) {
					configs = append(configs, ConfigFile{Path: fullPath, Type: detector.Name()})
					break
				}
			}
		}
	}

	return configs, nil
}
