package render

import (
	"fmt"

	"github.com/matrixops/homeport/internal/descriptor"
	"gopkg.in/yaml.v3"
)

// Options controls descriptor generation. Zero values fall back to the
// image's shipped defaults.
type Options struct {
	ServiceName   string
	Image         string
	VolumeName    string
	PublishedPort int
	Settings      descriptor.Settings
}

const (
	defaultServiceName   = "homeserver"
	defaultImage         = "matrixconduit/matrix-conduit:latest"
	defaultVolumeName    = "db"
	defaultPublishedPort = 8448
)

// compose document shape; field order matches the conventional layout
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]*composeNamed  `yaml:"volumes,omitempty"`
}

type composeService struct {
	Image       string            `yaml:"image"`
	Restart     string            `yaml:"restart"`
	Ports       []string          `yaml:"ports"`
	Volumes     []string          `yaml:"volumes"`
	Environment map[string]string `yaml:"environment"`
}

type composeNamed struct{}

// Compose renders a deployment descriptor for the given options. The output
// parses back into an equivalent descriptor and passes validation.
func Compose(opts Options) ([]byte, error) {
	opts = withDefaults(opts)

	s := opts.Settings
	if s.ServerName == "" {
		return nil, fmt.Errorf("server name is required")
	}

	env := s.Overrides()

	service := composeService{
		Image:   opts.Image,
		Restart: string(descriptor.RestartUnlessStopped),
		Ports: []string{
			fmt.Sprintf("%d:%d", opts.PublishedPort, s.Port),
		},
		Volumes: []string{
			fmt.Sprintf("%s:%s", opts.VolumeName, s.DatabasePath),
		},
		Environment: env,
	}

	file := composeFile{
		Services: map[string]composeService{
			opts.ServiceName: service,
		},
		Volumes: map[string]*composeNamed{
			opts.VolumeName: nil,
		},
	}

	out, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to render descriptor: %w", err)
	}
	return out, nil
}

func withDefaults(opts Options) Options {
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}
	if opts.Image == "" {
		opts.Image = defaultImage
	}
	if opts.VolumeName == "" {
		opts.VolumeName = defaultVolumeName
	}
	if opts.PublishedPort == 0 {
		opts.PublishedPort = defaultPublishedPort
	}
	opts.Settings = descriptor.Defaults().Merge(opts.Settings)
	return opts
}
