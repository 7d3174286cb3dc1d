package envscan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DotenvExtractor pulls variables out of .env override files
type DotenvExtractor struct{}

func NewDotenvExtractor() *DotenvExtractor {
	return &DotenvExtractor{}
}

func (d *DotenvExtractor) CanHandle(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	return strings.HasPrefix(base, ".env") || strings.HasSuffix(base, ".env")
}

func (d *DotenvExtractor) Confidence() int {
	return 85 // explicit env files are close to ground truth
}

func (d *DotenvExtractor) Extract(ctx context.Context, filename string, content []byte) ([]Result, error) {
	env, err := godotenv.Unmarshal(string(content))
	if err != nil {
		return nil, err
	}

	confidence := d.fileConfidence(filepath.Base(filename))

	var results []Result
	for key, value := range env {
		if ShouldIgnore(key) {
			continue
		}

		envType, sensitive := ClassifyEnvVar(key, value)
		results = append(results, Result{
			VarName:    key,
			Value:      value,
			Type:       envType,
			TypeName:   envType.String(),
			Sensitive:  sensitive,
			Source:     fmt.Sprintf("dotenv:%s", filename),
			Confidence: confidence,
		})
	}

	return results, nil
}

// fileConfidence ranks variants: .env.example documents intent without real
// values, so it outranks an ambient .env for classification purposes.
func (d *DotenvExtractor) fileConfidence(base string) int {
	lower := strings.ToLower(base)
	switch {
	case strings.Contains(lower, "example") || strings.Contains(lower, "sample") || strings.Contains(lower, "template"):
		return 90
	case strings.Contains(lower, "production") || strings.Contains(lower, "prod"):
		return 88
	default:
		return d.Confidence()
	}
}
