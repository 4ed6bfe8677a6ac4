package yaml

import (
	"fmt"
	"os"

	"github.com/sflowg/supadata/runtime"
	goyaml "gopkg.in/yaml.v3"
)

// FlowLoader loads flow definitions from YAML files.
type FlowLoader struct{}

func NewFlowLoader() *FlowLoader {
	return &FlowLoader{}
}

func (l *FlowLoader) Extensions() []string {
	return []string{"*.yaml", "*.yml"}
}

func (l *FlowLoader) Load(filePath string) (runtime.Flow, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return runtime.Flow{}, fmt.Errorf("error reading YAML file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a flow document. A return section becomes a final "return" step.
func Parse(data []byte) (runtime.Flow, error) {
	var flow runtime.Flow
	if err := goyaml.Unmarshal(data, &flow); err != nil {
		return runtime.Flow{}, fmt.Errorf("error unmarshalling YAML: %w", err)
	}

	seen := make(map[string]bool, len(flow.Steps))
	for _, s := range flow.Steps {
		if s.ID == "" || s.Type == "" {
			return runtime.Flow{}, fmt.Errorf("every step needs an id and a type")
		}
		if seen[s.ID] {
			return runtime.Flow{}, fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
	}

	if flow.Return.Type != "" {
		flow.Steps = append(flow.Steps, runtime.Step{
			ID:   "__return",
			Type: "return",
		})
	}

	return flow, nil
}
