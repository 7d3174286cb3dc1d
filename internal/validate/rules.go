package validate

import (
	"fmt"
	"path"
	"strings"

	"github.com/matrixops/homeport/internal/descriptor"
	"github.com/matrixops/homeport/internal/parser"
)

// ruleVolumeRefs checks referential consistency between the top-level
// volume block and the mounts that use it.
func ruleVolumeRefs(dep *parser.Deployment) []Finding {
	d := dep.Descriptor
	if d == nil {
		return nil
	}

	var findings []Finding
	mounted := make(map[string]bool)

	for _, service := range d.Services {
		for _, mount := range service.Mounts {
			if !mount.Named {
				continue
			}
			mounted[mount.Source] = true
			if !d.HasVolume(mount.Source) {
				findings = append(findings, Finding{
					Rule:     "unresolved-volume",
					Severity: SeverityError,
					Service:  service.Name,
					Field:    "volumes",
					Message:  fmt.Sprintf("mount references undeclared volume %q", mount.Source),
				})
			}
		}
	}

	for _, volume := range d.Volumes {
		if !mounted[volume] {
			findings = append(findings, Finding{
				Rule:     "unused-volume",
				Severity: SeverityWarning,
				Field:    "volumes",
				Message:  fmt.Sprintf("declared volume %q is never mounted", volume),
			})
		}
	}

	return findings
}

// rulePorts checks port mapping sanity and that the mapped container port
// actually reaches the configured listener.
func rulePorts(dep *parser.Deployment) []Finding {
	d := dep.Descriptor
	if d == nil {
		return nil
	}

	var findings []Finding
	published := make(map[int]string)

	for _, service := range d.Services {
		for _, port := range service.Ports {
			if !validPort(port.Published) || !validPort(port.Target) {
				findings = append(findings, Finding{
					Rule:     "port-range",
					Severity: SeverityError,
					Service:  service.Name,
					Field:    "ports",
					Message:  fmt.Sprintf("port mapping %d:%d is out of range", port.Published, port.Target),
				})
				continue
			}
			if other, taken := published[port.Published]; taken && other != service.Name {
				findings = append(findings, Finding{
					Rule:     "port-collision",
					Severity: SeverityError,
					Service:  service.Name,
					Field:    "ports",
					Message:  fmt.Sprintf("host port %d is already published by service %q", port.Published, other),
				})
				continue
			}
			published[port.Published] = service.Name
		}
	}

	homeserver := d.Homeserver()
	if homeserver != nil && dep.Settings.Port != 0 && len(homeserver.Ports) > 0 {
		reachable := false
		for _, port := range homeserver.Ports {
			if port.Target == dep.Settings.Port {
				reachable = true
				break
			}
		}
		if !reachable {
			findings = append(findings, Finding{
				Rule:     "port-mismatch",
				Severity: SeverityError,
				Service:  homeserver.Name,
				Field:    "ports",
				Message:  fmt.Sprintf("no port mapping targets the configured listener port %d", dep.Settings.Port),
			})
		}
	}

	return findings
}

// ruleRestart checks the restart policy grammar and recommends one that
// survives reboots for the homeserver.
func ruleRestart(dep *parser.Deployment) []Finding {
	d := dep.Descriptor
	if d == nil {
		return nil
	}

	var findings []Finding
	for _, service := range d.Services {
		if !service.Restart.Valid() {
			findings = append(findings, Finding{
				Rule:     "restart-policy",
				Severity: SeverityError,
				Service:  service.Name,
				Field:    "restart",
				Message:  fmt.Sprintf("restart policy %q is not in the orchestrator grammar", service.Restart),
			})
		}
	}

	if homeserver := d.Homeserver(); homeserver != nil {
		switch homeserver.Restart {
		case descriptor.RestartAlways, descriptor.RestartUnlessStopped:
		default:
			findings = append(findings, Finding{
				Rule:     "restart-recommended",
				Severity: SeverityWarning,
				Service:  homeserver.Name,
				Field:    "restart",
				Message:  "homeserver should restart automatically (always or unless-stopped)",
			})
		}
	}

	return findings
}

// ruleImage checks that each service has exactly one of image or build
// context, and that image references are well formed.
func ruleImage(dep *parser.Deployment) []Finding {
	d := dep.Descriptor
	if d == nil {
		return nil
	}

	var findings []Finding
	for _, service := range d.Services {
		hasImage := service.Image != ""
		hasBuild := service.BuildContext != ""

		switch {
		case hasImage && hasBuild:
			findings = append(findings, Finding{
				Rule:     "image-ambiguous",
				Severity: SeverityError,
				Service:  service.Name,
				Field:    "image",
				Message:  "service declares both an image and a build context",
			})
		case !hasImage && !hasBuild:
			findings = append(findings, Finding{
				Rule:     "image-missing",
				Severity: SeverityError,
				Service:  service.Name,
				Field:    "image",
				Message:  "service declares neither an image nor a build context",
			})
		case hasImage && !validImageRef(service.Image):
			findings = append(findings, Finding{
				Rule:     "image-ref",
				Severity: SeverityError,
				Service:  service.Name,
				Field:    "image",
				Message:  fmt.Sprintf("image reference %q is malformed", service.Image),
			})
		}
	}

	return findings
}

// ruleOverrideIssues surfaces override variables that did not parse.
func ruleOverrideIssues(dep *parser.Deployment) []Finding {
	var findings []Finding
	serviceName := ""
	if dep.Descriptor != nil {
		if homeserver := dep.Descriptor.Homeserver(); homeserver != nil {
			serviceName = homeserver.Name
		}
	}

	for _, issue := range dep.Issues {
		severity := SeverityWarning
		rule := "override-value"
		if issue.Reason == "unrecognized override variable" {
			rule = "override-unknown"
		}
		findings = append(findings, Finding{
			Rule:     rule,
			Severity: severity,
			Service:  serviceName,
			Field:    issue.Key,
			Message:  fmt.Sprintf("%s=%q: %s", issue.Key, issue.Value, issue.Reason),
		})
	}

	return findings
}

// ruleSettings checks the effective homeserver settings after layering.
func ruleSettings(dep *parser.Deployment) []Finding {
	s := dep.Settings
	serviceName := ""
	if dep.Descriptor != nil {
		homeserver := dep.Descriptor.Homeserver()
		if homeserver == nil {
			// nothing in the tree configures a homeserver; settings
			// rules would only report noise
			return nil
		}
		serviceName = homeserver.Name
	}

	var findings []Finding
	add := func(rule string, severity Severity, field, message string) {
		findings = append(findings, Finding{
			Rule: rule, Severity: severity, Service: serviceName, Field: field, Message: message,
		})
	}

	if s.ServerName == "" {
		add("server-name-missing", SeverityError, descriptor.EnvServerName,
			"server name is not set; the federation identity is mandatory")
	} else if !descriptor.ValidServerName(s.ServerName) {
		add("server-name", SeverityError, descriptor.EnvServerName,
			fmt.Sprintf("server name %q is not a hostname with optional port", s.ServerName))
	}

	if s.Port != 0 && !validPort(s.Port) {
		add("listener-port", SeverityError, descriptor.EnvPort,
			fmt.Sprintf("listener port %d is out of range", s.Port))
	}

	if s.Log != "" && !descriptor.ValidLogFilter(s.Log) {
		add("log-filter", SeverityError, descriptor.EnvLog,
			fmt.Sprintf("log filter %q has no valid level", s.Log))
	}

	if s.DatabasePath != "" && !path.IsAbs(s.DatabasePath) {
		add("database-path", SeverityError, descriptor.EnvDatabasePath,
			fmt.Sprintf("database path %q must be absolute inside the container", s.DatabasePath))
	}

	if s.MaxRequestSize <= 0 {
		add("max-request-size", SeverityError, descriptor.EnvMaxRequestSize,
			"max request size must be positive")
	} else if s.MaxRequestSize < 1_000_000 {
		add("max-request-size-small", SeverityWarning, descriptor.EnvMaxRequestSize,
			fmt.Sprintf("max request size %d bytes will reject most media uploads", s.MaxRequestSize))
	}

	if s.MaxConcurrentRequests < 0 {
		add("worker-count", SeverityError, descriptor.EnvMaxConcurrentRequests,
			"concurrent request limit must be positive")
	}

	if s.AllowRegistration != nil && *s.AllowRegistration {
		add("open-registration", SeverityInfo, descriptor.EnvAllowRegistration,
			"registration is open; anyone reaching the server can create accounts")
	}

	if s.AllowFederation != nil && !*s.AllowFederation && len(s.TrustedServers) > 0 {
		add("federation-off", SeverityInfo, descriptor.EnvAllowFederation,
			"trusted servers are configured but federation is disabled")
	}

	return findings
}

// rulePersistence checks that the database path survives container
// replacement: some mount target must cover it.
func rulePersistence(dep *parser.Deployment) []Finding {
	d := dep.Descriptor
	if d == nil {
		return nil
	}
	homeserver := d.Homeserver()
	if homeserver == nil || dep.Settings.DatabasePath == "" {
		return nil
	}

	dbPath := path.Clean(dep.Settings.DatabasePath)
	for _, mount := range homeserver.Mounts {
		target := path.Clean(mount.Target)
		if dbPath == target || strings.HasPrefix(dbPath+"/", target+"/") {
			return nil
		}
	}

	return []Finding{{
		Rule:     "data-persistence",
		Severity: SeverityError,
		Service:  homeserver.Name,
		Field:    "volumes",
		Message:  fmt.Sprintf("database path %s is not covered by any mount; data is lost when the container is replaced", dep.Settings.DatabasePath),
	}}
}

// ruleSensitiveValues flags secrets committed in plain text in the
// descriptor environment.
func ruleSensitiveValues(dep *parser.Deployment) []Finding {
	d := dep.Descriptor
	if d == nil {
		return nil
	}

	var findings []Finding
	for _, service := range d.Services {
		for key, v := range service.Environment {
			if v.Sensitive && v.Value != "" {
				findings = append(findings, Finding{
					Rule:     "plaintext-secret",
					Severity: SeverityWarning,
					Service:  service.Name,
					Field:    key,
					Message:  fmt.Sprintf("%s carries a sensitive value in plain text", key),
				})
			}
		}
	}

	return findings
}

func validPort(port int) bool {
	return port >= 1 && port <= 65535
}

// validImageRef is a loose check on name[:tag] image references.
func validImageRef(ref string) bool {
	if strings.ContainsAny(ref, " \t") {
		return false
	}
	name := ref
	if idx := strings.LastIndex(ref, ":"); idx >= 0 && !strings.Contains(ref[idx:], "/") {
		tag := ref[idx+1:]
		if tag == "" {
			return false
		}
		name = ref[:idx]
	}
	return name != "" && !strings.HasPrefix(name, "/") && !strings.HasSuffix(name, "/")
}
