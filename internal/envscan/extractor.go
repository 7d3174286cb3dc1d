package envscan

import (
	"context"
)

// ContentExtractor pulls environment variables out of one file format
type ContentExtractor interface {
	// CanHandle reports whether this extractor understands the file
	CanHandle(filename string) bool

	// Extract parses the content and returns classified variables
	Extract(ctx context.Context, filename string, content []byte) ([]Result, error)

	// Confidence level for deduplication across sources
	Confidence() int
}

// Extractor fans file content out to every extractor that can handle it
type Extractor struct {
	extractors []ContentExtractor
}

func NewExtractor() *Extractor {
	return &Extractor{
		extractors: []ContentExtractor{
			NewComposeExtractor(),
			NewDotenvExtractor(),
			NewDockerfileExtractor(),
		},
	}
}

// Extract applies all matching extractors to the file content. Results
// stream out on the returned channel; it closes when extraction is done.
func (e *Extractor) Extract(ctx context.Context, filename string, content []byte) <-chan Result {
	results := make(chan Result, 32)

	go func() {
		defer close(results)

		for _, extractor := range e.extractors {
			if !extractor.CanHandle(filename) {
				continue
			}

			envResults, err := extractor.Extract(ctx, filename, content)
			if err != nil {
				continue
			}

			for _, result := range envResults {
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return results
}

// Dedupe keeps the highest-confidence result per variable name.
func Dedupe(results []Result) map[string]Result {
	deduped := make(map[string]Result)
	for _, r := range results {
		existing, ok := deduped[r.VarName]
		if !ok || r.Confidence > existing.Confidence {
			deduped[r.VarName] = r
		}
	}
	return deduped
}
