package validate

import (
	"context"
	"fmt"
	"sort"

	"github.com/matrixops/homeport/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Severity grades a finding
type Severity string

const (
	SeverityError   Severity = "error"   // will not deploy, or loses data
	SeverityWarning Severity = "warning" // deploys but suspect
	SeverityInfo    Severity = "info"    // advisory
)

// Finding is one validation result
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Service  string   `json:"service,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Report collects the findings for one deployment
type Report struct {
	Source   string    `json:"source"`
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any finding is error-grade.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of findings at the given severity.
func (r Report) Count(severity Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

// Rule checks one aspect of a deployment
type Rule func(*parser.Deployment) []Finding

// Validator runs a fixed rule set over deployments
type Validator struct {
	rules []Rule
}

func New() *Validator {
	return &Validator{
		rules: []Rule{
			ruleVolumeRefs,
			rulePorts,
			ruleRestart,
			ruleImage,
			ruleOverrideIssues,
			ruleSettings,
			rulePersistence,
			ruleSensitiveValues,
		},
	}
}

// Validate runs every rule over one deployment.
func (v *Validator) Validate(deployment *parser.Deployment) Report {
	report := Report{Findings: []Finding{}}
	if deployment.Descriptor != nil {
		report.Source = deployment.Descriptor.Source
	} else if len(deployment.Sources) > 0 {
		report.Source = deployment.Sources[0].Path
	}

	for _, rule := range v.rules {
		report.Findings = append(report.Findings, rule(deployment)...)
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		return severityRank(report.Findings[i].Severity) < severityRank(report.Findings[j].Severity)
	})
	return report
}

// ValidateAll validates deployments concurrently, preserving input order.
func (v *Validator) ValidateAll(ctx context.Context, deployments []*parser.Deployment) ([]Report, error) {
	reports := make([]Report, len(deployments))

	g, ctx := errgroup.WithContext(ctx)
	for i, deployment := range deployments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = v.Validate(deployment)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validation interrupted: %w", err)
	}

	return reports, nil
}

func severityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}
