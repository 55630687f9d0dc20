package loader

// WorkflowDocument is the declarative form of a workflow.
// It uses "mapstructure" tags so the same keys work from YAML or JSON.
type WorkflowDocument struct {
	Name        string              `mapstructure:"name"`
	Description string              `mapstructure:"description"`
	Entry       string              `mapstructure:"entry"`
	Stages      []StageDocument     `mapstructure:"stages"`
	Transitions map[string][]string `mapstructure:"transitions"`
}

// StageDocument declares one stage. Transitions may be given inline with "to".
type StageDocument struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Requires    []string       `mapstructure:"requires"`
	To          []string       `mapstructure:"to"`
	Tasks       []TaskDocument `mapstructure:"tasks"`
}

// TaskDocument declares one task. Handler names the bound body and defaults to Name.
type TaskDocument struct {
	Name        string          `mapstructure:"name"`
	Description string          `mapstructure:"description"`
	Handler     string          `mapstructure:"handler"`
	Params      []ParamDocument `mapstructure:"params"`
}

// ParamDocument declares one parameter. Required defaults to true unless a default is given.
type ParamDocument struct {
	Name        string   `mapstructure:"name"`
	Type        string   `mapstructure:"type"`
	Required    *bool    `mapstructure:"required"`
	Default     any      `mapstructure:"default"`
	Description string   `mapstructure:"description"`
	Options     []string `mapstructure:"options"`
}
