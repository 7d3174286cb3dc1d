package parser

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composeTypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/matrixops/homeport/internal/descriptor"
	"github.com/matrixops/homeport/internal/envscan"
	"github.com/matrixops/homeport/internal/filesystems"
)

// ComposeParser converts orchestrator descriptor files into the typed model
type ComposeParser struct {
	filesystem filesystems.FileSystem
}

func NewComposeParser(filesystem filesystems.FileSystem) *ComposeParser {
	return &ComposeParser{filesystem: filesystem}
}

// ParseFile reads and parses a descriptor through the filesystem abstraction.
func (p *ComposeParser) ParseFile(ctx context.Context, path string) (*descriptor.Descriptor, error) {
	content, err := p.filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return p.Parse(ctx, path, content)
}

// Parse parses descriptor content. The filename seeds the project name and
// shows up in findings; it does not need to exist on disk.
func (p *ComposeParser) Parse(ctx context.Context, filename string, content []byte) (*descriptor.Descriptor, error) {
	projectName := sanitizeProjectName(p.filesystem.Base(p.filesystem.Dir(filename)))

	configDetails := composeTypes.ConfigDetails{
		WorkingDir: p.filesystem.Dir(filename),
		ConfigFiles: []composeTypes.ConfigFile{
			{Filename: filename, Content: content},
		},
	}

	project, err := loader.LoadWithContext(ctx, configDetails, func(options *loader.Options) {
		options.SetProjectName(projectName, true)
		// referential consistency is this tool's own concern; a
		// descriptor that refers to an undeclared volume must parse so
		// the validator can report it
		options.SkipConsistencyCheck = true
		// env_file layering happens in the aggregator through the
		// filesystem abstraction; the loader would read the files from
		// the OS and fail the whole parse when one is missing
		options.SkipResolveEnvironment = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load descriptor: %w", err)
	}

	d := descriptor.NewDescriptor(project.Name)
	d.Source = filename

	for name := range project.Volumes {
		d.Volumes = append(d.Volumes, name)
	}
	sort.Strings(d.Volumes)

	serviceNames := make([]string, 0, len(project.Services))
	for name := range project.Services {
		serviceNames = append(serviceNames, name)
	}
	sort.Strings(serviceNames)

	for _, name := range serviceNames {
		service, err := p.convertService(project.Services[name])
		if err != nil {
			return nil, fmt.Errorf("failed to convert service %s: %w", name, err)
		}
		d.AddService(service)
	}

	return d, nil
}

func (p *ComposeParser) convertService(composeService composeTypes.ServiceConfig) (descriptor.Service, error) {
	service := descriptor.NewService(composeService.Name)
	service.Image = composeService.Image
	service.Restart = descriptor.RestartPolicy(composeService.Restart)

	if composeService.Build != nil {
		service.BuildContext = composeService.Build.Context
		if service.BuildContext == "" {
			service.BuildContext = "."
		}
	}

	for key, value := range composeService.Environment {
		val := ""
		if value != nil {
			val = *value
		}
		_, sensitive := envscan.ClassifyEnvVar(key, val)
		service.Environment[key] = descriptor.NewEnvVar(val, sensitive)
	}

	for _, port := range composeService.Ports {
		mapping, ok := convertPort(port)
		if !ok {
			continue // expose-only or malformed mappings carry no host binding
		}
		service.Ports = append(service.Ports, mapping)
	}

	for _, vol := range composeService.Volumes {
		service.Mounts = append(service.Mounts, descriptor.VolumeMount{
			Source:   vol.Source,
			Target:   vol.Target,
			ReadOnly: vol.ReadOnly,
			Named:    vol.Type == "volume",
		})
	}

	for _, envFile := range composeService.EnvFiles {
		service.EnvFiles = append(service.EnvFiles, envFile.Path)
	}

	for dep := range composeService.DependsOn {
		service.DependsOn = append(service.DependsOn, dep)
	}
	sort.Strings(service.DependsOn)

	return service, nil
}

func convertPort(port composeTypes.ServicePortConfig) (descriptor.PortMapping, bool) {
	if port.Published == "" {
		return descriptor.PortMapping{}, false
	}

	// "127.0.0.1:8448" style published values keep only the port part
	parts := strings.Split(port.Published, ":")
	published, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return descriptor.PortMapping{}, false
	}

	return descriptor.PortMapping{
		Published: published,
		Target:    int(port.Target),
		Protocol:  port.Protocol,
	}, true
}

// sanitizeProjectName maps arbitrary directory names onto the loader's
// project-name grammar (lowercase alphanumerics, dashes, underscores).
func sanitizeProjectName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	trimmed := strings.Trim(b.String(), "-_")
	if trimmed == "" {
		return "homeserver"
	}
	return trimmed
}
