package envscan

import (
	"context"
	"sort"

	"github.com/matrixops/homeport/internal/discovery"
	"github.com/matrixops/homeport/internal/filesystems"
)

// Collect extracts and classifies environment variables from discovered
// configuration files. When the same variable appears in several files, the
// highest-confidence source wins. Results come back sorted by name.
func Collect(ctx context.Context, filesystem filesystems.FileSystem, configs []discovery.ConfigFile) ([]Result, error) {
	extractor := NewExtractor()
	var all []Result

	for _, config := range configs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := filesystem.ReadFile(config.Path)
		if err != nil {
			continue // unreadable files are not fatal to the scan
		}
		for result := range extractor.Extract(ctx, config.Path, content) {
			all = append(all, result)
		}
	}

	deduped := Dedupe(all)
	results := make([]Result, 0, len(deduped))
	for _, result := range deduped {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].VarName < results[j].VarName
	})
	return results, nil
}
