package descriptor

import "strings"

// Descriptor represents a parsed homeserver deployment descriptor
type Descriptor struct {
	Name     string    `json:"name"`
	Source   string    `json:"source,omitempty"`
	Services []Service `json:"services"`
	Volumes  []string  `json:"volumes,omitempty"`
}

// Service represents a single service block in the descriptor
type Service struct {
	Name         string            `json:"name"`
	Image        string            `json:"image,omitempty"`
	BuildContext string            `json:"buildContext,omitempty"`
	Restart      RestartPolicy     `json:"restart,omitempty"`
	Ports        []PortMapping     `json:"ports,omitempty"`
	Mounts       []VolumeMount     `json:"mounts,omitempty"`
	Environment  map[string]EnvVar `json:"environment,omitempty"`
	EnvFiles     []string          `json:"envFiles,omitempty"`
	DependsOn    []string          `json:"dependsOn,omitempty"`
}

// PortMapping represents a host-to-container port binding
type PortMapping struct {
	Published int    `json:"published"`
	Target    int    `json:"target"`
	Protocol  string `json:"protocol,omitempty"`
}

// VolumeMount represents a volume or bind mount on a service
type VolumeMount struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Named    bool   `json:"named"` // named volume vs host bind path
}

// EnvVar represents an environment variable with metadata
type EnvVar struct {
	Value     string `json:"value"`
	Sensitive bool   `json:"sensitive"`
}

// RestartPolicy is the orchestrator restart grammar for a service
type RestartPolicy string

const (
	RestartUnset         RestartPolicy = ""
	RestartNo            RestartPolicy = "no"
	RestartAlways        RestartPolicy = "always"
	RestartOnFailure     RestartPolicy = "on-failure"
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// Valid reports whether the policy is one the orchestrator grammar accepts.
// The empty policy is valid (the orchestrator defaults it to "no").
func (r RestartPolicy) Valid() bool {
	switch r {
	case RestartUnset, RestartNo, RestartAlways, RestartOnFailure, RestartUnlessStopped:
		return true
	}
	// on-failure accepts a retry count suffix
	return strings.HasPrefix(string(r), "on-failure:")
}

// Constructors

func NewDescriptor(name string) *Descriptor {
	return &Descriptor{
		Name:     name,
		Services: make([]Service, 0),
	}
}

func (d *Descriptor) AddService(service Service) {
	d.Services = append(d.Services, service)
}

// HasVolume reports whether a top-level named volume is declared.
func (d *Descriptor) HasVolume(name string) bool {
	for _, v := range d.Volumes {
		if v == name {
			return true
		}
	}
	return false
}

// Homeserver returns the service that looks like the homeserver: the one
// carrying settings overrides, or failing that one whose image names the
// server. Returns nil when no service qualifies.
func (d *Descriptor) Homeserver() *Service {
	for i := range d.Services {
		for key := range d.Services[i].Environment {
			if strings.HasPrefix(key, EnvPrefix) {
				return &d.Services[i]
			}
		}
	}
	for i := range d.Services {
		if strings.Contains(d.Services[i].Image, "conduit") {
			return &d.Services[i]
		}
	}
	return nil
}

func NewService(name string) Service {
	return Service{
		Name:        name,
		Environment: make(map[string]EnvVar),
		Ports:       make([]PortMapping, 0),
		Mounts:      make([]VolumeMount, 0),
	}
}

// RawEnvironment flattens the service environment to plain key/value pairs.
func (s *Service) RawEnvironment() map[string]string {
	env := make(map[string]string, len(s.Environment))
	for key, v := range s.Environment {
		env[key] = v.Value
	}
	return env
}

func NewEnvVar(value string, sensitive bool) EnvVar {
	return EnvVar{
		Value:     value,
		Sensitive: sensitive,
	}
}
