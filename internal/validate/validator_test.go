package validate

import (
	"context"
	"testing"

	"github.com/matrixops/homeport/internal/descriptor"
	"github.com/matrixops/homeport/internal/parser"
)

// healthyDeployment builds a deployment that passes every rule.
func healthyDeployment() *parser.Deployment {
	d := descriptor.NewDescriptor("deploy")
	d.Source = "docker-compose.yml"
	d.Volumes = []string{"db"}

	hs := descriptor.NewService("homeserver")
	hs.Image = "matrixconduit/matrix-conduit:latest"
	hs.Restart = descriptor.RestartUnlessStopped
	hs.Ports = []descriptor.PortMapping{{Published: 8448, Target: 6167}}
	hs.Mounts = []descriptor.VolumeMount{{Source: "db", Target: "/var/lib/matrix-conduit/", Named: true}}
	hs.Environment[descriptor.EnvServerName] = descriptor.NewEnvVar("matrix.example.com", false)
	d.AddService(hs)

	settings := descriptor.Defaults()
	settings.ServerName = "matrix.example.com"

	return &parser.Deployment{
		Descriptor: d,
		Settings:   settings,
	}
}

func findingRules(report Report) map[string]Severity {
	rules := make(map[string]Severity)
	for _, f := range report.Findings {
		rules[f.Rule] = f.Severity
	}
	return rules
}

func TestHealthyDeploymentIsClean(t *testing.T) {
	report := New().Validate(healthyDeployment())
	for _, f := range report.Findings {
		if f.Severity != SeverityInfo {
			t.Errorf("unexpected finding: %+v", f)
		}
	}
	if report.HasErrors() {
		t.Error("healthy deployment reported errors")
	}
}

func TestUnresolvedVolume(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Volumes = nil

	rules := findingRules(New().Validate(dep))
	if rules["unresolved-volume"] != SeverityError {
		t.Errorf("unresolved-volume not reported as error: %v", rules)
	}
}

func TestUnusedVolume(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Volumes = append(dep.Descriptor.Volumes, "media")

	rules := findingRules(New().Validate(dep))
	if rules["unused-volume"] != SeverityWarning {
		t.Errorf("unused-volume not reported as warning: %v", rules)
	}
}

func TestPortCollision(t *testing.T) {
	dep := healthyDeployment()
	web := descriptor.NewService("web")
	web.Image = "nginx:alpine"
	web.Restart = descriptor.RestartAlways
	web.Ports = []descriptor.PortMapping{{Published: 8448, Target: 80}}
	dep.Descriptor.AddService(web)

	rules := findingRules(New().Validate(dep))
	if rules["port-collision"] != SeverityError {
		t.Errorf("port-collision not reported: %v", rules)
	}
}

func TestPortRange(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Services[0].Ports = []descriptor.PortMapping{{Published: 70000, Target: 6167}}

	rules := findingRules(New().Validate(dep))
	if rules["port-range"] != SeverityError {
		t.Errorf("port-range not reported: %v", rules)
	}
}

func TestPortMismatch(t *testing.T) {
	dep := healthyDeployment()
	dep.Settings.Port = 8008 // listener moved, mapping still targets 6167

	rules := findingRules(New().Validate(dep))
	if rules["port-mismatch"] != SeverityError {
		t.Errorf("port-mismatch not reported: %v", rules)
	}
}

func TestRestartPolicy(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Services[0].Restart = "sometimes"

	rules := findingRules(New().Validate(dep))
	if rules["restart-policy"] != SeverityError {
		t.Errorf("restart-policy not reported: %v", rules)
	}
}

func TestRestartRecommended(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Services[0].Restart = descriptor.RestartUnset

	rules := findingRules(New().Validate(dep))
	if rules["restart-recommended"] != SeverityWarning {
		t.Errorf("restart-recommended not reported: %v", rules)
	}
}

func TestImageRules(t *testing.T) {
	tests := []struct {
		name  string
		image string
		build string
		rule  string
	}{
		{"both", "img:latest", ".", "image-ambiguous"},
		{"neither", "", "", "image-missing"},
		{"malformed", "bad image ref", "", "image-ref"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := healthyDeployment()
			dep.Descriptor.Services[0].Image = tt.image
			dep.Descriptor.Services[0].BuildContext = tt.build

			rules := findingRules(New().Validate(dep))
			if rules[tt.rule] != SeverityError {
				t.Errorf("%s not reported: %v", tt.rule, rules)
			}
		})
	}
}

func TestServerNameMissing(t *testing.T) {
	dep := healthyDeployment()
	dep.Settings.ServerName = ""

	rules := findingRules(New().Validate(dep))
	if rules["server-name-missing"] != SeverityError {
		t.Errorf("server-name-missing not reported: %v", rules)
	}
}

func TestSettingsRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*parser.Deployment)
		rule   string
	}{
		{"bad server name", func(d *parser.Deployment) { d.Settings.ServerName = "https://matrix.org" }, "server-name"},
		{"bad log filter", func(d *parser.Deployment) { d.Settings.Log = "loud" }, "log-filter"},
		{"relative db path", func(d *parser.Deployment) {
			d.Settings.DatabasePath = "data/"
			d.Descriptor.Services[0].Mounts[0].Target = "data/"
		}, "database-path"},
		{"zero request size", func(d *parser.Deployment) { d.Settings.MaxRequestSize = 0 }, "max-request-size"},
		{"tiny request size", func(d *parser.Deployment) { d.Settings.MaxRequestSize = 1024 }, "max-request-size-small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := healthyDeployment()
			tt.mutate(dep)

			rules := findingRules(New().Validate(dep))
			if _, ok := rules[tt.rule]; !ok {
				t.Errorf("%s not reported: %v", tt.rule, rules)
			}
		})
	}
}

func TestDataPersistence(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Services[0].Mounts = nil

	rules := findingRules(New().Validate(dep))
	if rules["data-persistence"] != SeverityError {
		t.Errorf("data-persistence not reported: %v", rules)
	}
}

func TestDataPersistenceCoveredByParentMount(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Services[0].Mounts = []descriptor.VolumeMount{
		{Source: "db", Target: "/var/lib", Named: true},
	}
	dep.Descriptor.Volumes = []string{"db"}

	rules := findingRules(New().Validate(dep))
	if _, ok := rules["data-persistence"]; ok {
		t.Errorf("parent mount should cover the database path: %v", rules)
	}
}

func TestPlaintextSecret(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Services[0].Environment["REGISTRATION_SHARED_SECRET"] = descriptor.NewEnvVar("hunter2", true)

	rules := findingRules(New().Validate(dep))
	if rules["plaintext-secret"] != SeverityWarning {
		t.Errorf("plaintext-secret not reported: %v", rules)
	}
}

func TestOverrideIssues(t *testing.T) {
	dep := healthyDeployment()
	dep.Issues = []descriptor.Issue{
		{Key: "CONDUIT_PORT", Value: "nope", Reason: "not an integer"},
		{Key: "CONDUIT_TYPO", Value: "x", Reason: "unrecognized override variable"},
	}

	rules := findingRules(New().Validate(dep))
	if rules["override-value"] != SeverityWarning {
		t.Errorf("override-value not reported: %v", rules)
	}
	if rules["override-unknown"] != SeverityWarning {
		t.Errorf("override-unknown not reported: %v", rules)
	}
}

func TestOpenRegistrationInfo(t *testing.T) {
	dep := healthyDeployment()
	reg := true
	dep.Settings.AllowRegistration = &reg

	rules := findingRules(New().Validate(dep))
	if rules["open-registration"] != SeverityInfo {
		t.Errorf("open-registration not reported: %v", rules)
	}
}

func TestSettingsOnlyDeployment(t *testing.T) {
	dep := &parser.Deployment{Settings: descriptor.Defaults()}

	report := New().Validate(dep)
	rules := findingRules(report)
	if rules["server-name-missing"] != SeverityError {
		t.Errorf("settings-only deployment should still demand a server name: %v", rules)
	}
	// no descriptor, so no structural findings
	for _, structural := range []string{"unresolved-volume", "port-mismatch", "restart-recommended", "data-persistence"} {
		if _, ok := rules[structural]; ok {
			t.Errorf("structural rule %s fired without a descriptor", structural)
		}
	}
}

func TestValidateAll(t *testing.T) {
	deployments := []*parser.Deployment{
		healthyDeployment(),
		healthyDeployment(),
	}
	deployments[1].Settings.ServerName = ""

	reports, err := New().ValidateAll(context.Background(), deployments)
	if err != nil {
		t.Fatalf("ValidateAll failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].HasErrors() {
		t.Error("first deployment should be clean")
	}
	if !reports[1].HasErrors() {
		t.Error("second deployment should have errors")
	}
}

func TestFindingsSortedBySeverity(t *testing.T) {
	dep := healthyDeployment()
	dep.Descriptor.Volumes = append(dep.Descriptor.Volumes, "media") // warning
	dep.Settings.ServerName = ""                                     // error

	report := New().Validate(dep)
	lastRank := -1
	for _, f := range report.Findings {
		rank := severityRank(f.Severity)
		if rank < lastRank {
			t.Fatalf("findings not sorted by severity: %+v", report.Findings)
		}
		lastRank = rank
	}
}
