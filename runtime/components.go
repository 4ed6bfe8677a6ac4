package runtime

type Flow struct {
	ID         string         `yaml:"id"`
	Entrypoint Entrypoint     `yaml:"entrypoint"`
	Steps      []Step         `yaml:"steps"`
	Properties map[string]any `yaml:"properties"`
	Return     Return         `yaml:"return"`
}

type Entrypoint struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// Step is a single unit of a flow. A task step that declares Parameters runs
// as a node: the task is invoked once with every item produced by Items, and
// each parameter is resolved per item through a ParameterStore.
type Step struct {
	ID             string         `yaml:"id"`
	Type           string         `yaml:"type"`
	Condition      string         `yaml:"condition,omitempty"`
	Args           map[string]any `yaml:"args"`
	Next           string         `yaml:"next,omitempty"`
	Items          string         `yaml:"items,omitempty"`
	Parameters     map[string]any `yaml:"parameters,omitempty"`
	ContinueOnFail bool           `yaml:"continueOnFail,omitempty"`
}

// IsNode reports whether the step runs its task per item.
func (s Step) IsNode() bool {
	return s.Parameters != nil
}

type Return struct {
	Type string         `yaml:"type"`
	Args map[string]any `yaml:"args"`
}
