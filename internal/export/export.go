package export

import (
	"github.com/matrixops/homeport/internal/envscan"
	"github.com/matrixops/homeport/internal/parser"
	"github.com/matrixops/homeport/internal/validate"
)

// Report is the machine-readable result of a full run over a source tree
type Report struct {
	Root        string               `json:"root"`
	Deployments []*parser.Deployment `json:"deployments"`
	Validation  []validate.Report    `json:"validation,omitempty"`
	Environment []envscan.Result     `json:"environment,omitempty"`
}

// Exporter converts a report to an output format
type Exporter interface {
	// Export serializes the report
	Export(report *Report) ([]byte, error)

	// Name returns the exporter name (e.g. "json")
	Name() string
}
