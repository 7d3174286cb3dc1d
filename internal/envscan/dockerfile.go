package envscan

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// DockerfileExtractor pulls baked-in ENV instructions out of build files
type DockerfileExtractor struct{}

func NewDockerfileExtractor() *DockerfileExtractor {
	return &DockerfileExtractor{}
}

func (d *DockerfileExtractor) CanHandle(filename string) bool {
	return strings.Contains(strings.ToLower(filename), "dockerfile")
}

func (d *DockerfileExtractor) Confidence() int {
	return 60 // baked-in defaults, often overridden by the descriptor
}

func (d *DockerfileExtractor) Extract(ctx context.Context, filename string, content []byte) ([]Result, error) {
	ast, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, child := range ast.AST.Children {
		if strings.ToUpper(child.Value) == "ENV" {
			results = append(results, d.parseEnvNode(child, filename)...)
		}
	}

	return results, nil
}

func (d *DockerfileExtractor) parseEnvNode(node *parser.Node, dockerfilePath string) []Result {
	// the parser emits alternating key/value nodes for both ENV syntaxes
	var args []string
	for n := node.Next; n != nil; n = n.Next {
		args = append(args, n.Value)
	}

	var results []Result
	for i := 0; i+1 < len(args); i += 2 {
		varName, value := args[i], args[i+1]
		if ShouldIgnore(varName) {
			continue
		}
		envType, sensitive := ClassifyEnvVar(varName, value)
		results = append(results, Result{
			VarName:    varName,
			Value:      value,
			Type:       envType,
			TypeName:   envType.String(),
			Sensitive:  sensitive,
			Source:     fmt.Sprintf("dockerfile:%s", dockerfilePath),
			Confidence: d.Confidence(),
		})
	}

	return results
}
