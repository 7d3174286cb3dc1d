package envscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composeTypes "github.com/compose-spec/compose-go/v2/types"
)

// ComposeExtractor pulls service environment blocks out of descriptor files
type ComposeExtractor struct{}

func NewComposeExtractor() *ComposeExtractor {
	return &ComposeExtractor{}
}

func (c *ComposeExtractor) CanHandle(filename string) bool {
	name := strings.ToLower(filename)
	return strings.Contains(name, "compose") && (strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml"))
}

func (c *ComposeExtractor) Confidence() int {
	return 80
}

func (c *ComposeExtractor) Extract(ctx context.Context, filename string, content []byte) ([]Result, error) {
	configDetails := composeTypes.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []composeTypes.ConfigFile{
			{
				Filename: filename,
				Content:  content,
			},
		},
	}

	project, err := loader.LoadWithContext(ctx, configDetails, func(options *loader.Options) {
		options.SetProjectName("temp", true)
		options.SkipConsistencyCheck = true
		// only the inline environment block matters here; env_file
		// contents come through the dotenv extractor
		options.SkipResolveEnvironment = true
	})
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, service := range project.Services {
		for key, value := range service.Environment {
			val := ""
			if value != nil {
				val = *value
			}

			if ShouldIgnore(key) {
				continue
			}

			envType, sensitive := ClassifyEnvVar(key, val)
			results = append(results, Result{
				VarName:    key,
				Value:      val,
				Type:       envType,
				TypeName:   envType.String(),
				Sensitive:  sensitive,
				Source:     fmt.Sprintf("compose:%s", filename),
				Confidence: c.Confidence(),
			})
		}
	}

	return results, nil
}
