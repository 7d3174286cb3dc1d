package parser

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matrixops/homeport/internal/descriptor"
	"github.com/matrixops/homeport/internal/discovery"
	"github.com/matrixops/homeport/internal/filesystems"
)

// Deployment is a fully resolved homeserver deployment: the descriptor plus
// the effective settings after layering defaults, the native config file,
// env_file overrides, and the service environment.
type Deployment struct {
	Descriptor *descriptor.Descriptor `json:"descriptor,omitempty"`
	Settings   descriptor.Settings    `json:"settings"`
	Issues     []descriptor.Issue     `json:"issues,omitempty"`
	Sources    []discovery.ConfigFile `json:"sources"`
}

// Aggregator resolves discovered config files into deployments
type Aggregator struct {
	filesystem filesystems.FileSystem
	compose    *ComposeParser
}

func NewAggregator(filesystem filesystems.FileSystem) *Aggregator {
	return &Aggregator{
		filesystem: filesystem,
		compose:    NewComposeParser(filesystem),
	}
}

// Aggregate turns scanner output into deployments. Each descriptor file
// yields one deployment; a native config file with no descriptor still
// yields a settings-only deployment so its values can be checked.
func (a *Aggregator) Aggregate(ctx context.Context, configs []discovery.ConfigFile) ([]*Deployment, error) {
	var composeConfigs, serverConfigs []discovery.ConfigFile
	for _, config := range configs {
		switch config.Type {
		case discovery.TypeCompose:
			composeConfigs = append(composeConfigs, config)
		case discovery.TypeServerConfig:
			serverConfigs = append(serverConfigs, config)
		}
	}

	// The native config is the base layer under every descriptor in the
	// tree. More than one is unusual; the first found wins.
	base := descriptor.Defaults()
	var baseSource *discovery.ConfigFile
	var baseIssues []descriptor.Issue
	if len(serverConfigs) > 0 {
		content, err := a.filesystem.ReadFile(serverConfigs[0].Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read server config %s: %w", serverConfigs[0].Path, err)
		}
		settings, err := ParseServerConfig(content)
		if err != nil {
			baseIssues = append(baseIssues, descriptor.Issue{
				Key:    "server-config",
				Value:  serverConfigs[0].Path,
				Reason: err.Error(),
			})
		} else {
			base = base.Merge(settings)
			baseSource = &serverConfigs[0]
		}
	}

	var deployments []*Deployment
	for _, config := range composeConfigs {
		deployment, err := a.resolveCompose(ctx, config, base, baseSource)
		if err != nil {
			return nil, err
		}
		deployment.Issues = append(baseIssues, deployment.Issues...)
		deployments = append(deployments, deployment)
	}

	if len(deployments) == 0 && baseSource != nil {
		deployments = append(deployments, &Deployment{
			Settings: base,
			Issues:   baseIssues,
			Sources:  []discovery.ConfigFile{*baseSource},
		})
	}

	return deployments, nil
}

func (a *Aggregator) resolveCompose(ctx context.Context, config discovery.ConfigFile, base descriptor.Settings, baseSource *discovery.ConfigFile) (*Deployment, error) {
	d, err := a.compose.ParseFile(ctx, config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", config.Path, err)
	}

	deployment := &Deployment{
		Descriptor: d,
		Settings:   base,
		Sources:    []discovery.ConfigFile{config},
	}
	if baseSource != nil {
		deployment.Sources = append(deployment.Sources, *baseSource)
	}

	homeserver := d.Homeserver()
	if homeserver == nil {
		return deployment, nil
	}

	// env_file values sit under the inline environment block
	env := make(map[string]string)
	for _, envFile := range homeserver.EnvFiles {
		path := envFile
		if !filepath.IsAbs(path) {
			path = a.filesystem.Join(a.filesystem.Dir(config.Path), envFile)
		}
		content, err := a.filesystem.ReadFile(path)
		if err != nil {
			deployment.Issues = append(deployment.Issues, descriptor.Issue{
				Key:    "env_file",
				Value:  envFile,
				Reason: "referenced file could not be read",
			})
			continue
		}
		vars, err := godotenv.Unmarshal(string(content))
		if err != nil {
			deployment.Issues = append(deployment.Issues, descriptor.Issue{
				Key:    "env_file",
				Value:  envFile,
				Reason: fmt.Sprintf("not parseable: %v", err),
			})
			continue
		}
		for key, value := range vars {
			env[key] = value
		}
		deployment.Sources = append(deployment.Sources, discovery.ConfigFile{
			Path: path,
			Type: discovery.TypeDotenv,
		})
	}
	for key, v := range homeserver.Environment {
		env[key] = v.Value
	}

	overrides, issues := descriptor.ParseEnvironment(env)
	deployment.Settings = base.Merge(overrides)
	deployment.Issues = append(deployment.Issues, issues...)

	return deployment, nil
}
