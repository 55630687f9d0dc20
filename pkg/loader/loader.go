package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/registry"
)

// UnboundHandlerError is returned when a task names a handler the host never registered.
type UnboundHandlerError struct {
	Workflow string
	Task     string
	Handler  string
}

func (e *UnboundHandlerError) Error() string {
	return fmt.Sprintf("workflow %q task %q: no handler registered as %q", e.Workflow, e.Task, e.Handler)
}

// Parse decodes every YAML document in data into a validated workflow.
// Task bodies are resolved by name from handlers.
func Parse(data []byte, handlers *registry.Handlers) ([]*domain.Workflow, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var out []*domain.Workflow
	for i := 0; ; i++ {
		var raw map[string]any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if raw == nil {
			continue // empty document between separators
		}

		doc, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		wf, err := Build(doc, handlers)
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	return out, nil
}

// LoadFile parses a single workflow file.
func LoadFile(path string, handlers *registry.Handlers) ([]*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wfs, err := Parse(data, handlers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wfs, nil
}

// LoadDir parses every *.yaml and *.yml file in dir, in lexical order.
func LoadDir(dir string, handlers *registry.Handlers) ([]*domain.Workflow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)

	var out []*domain.Workflow
	for _, f := range files {
		wfs, err := LoadFile(f, handlers)
		if err != nil {
			return nil, err
		}
		out = append(out, wfs...)
	}
	return out, nil
}

// Load parses path as a file or, when it is a directory, as LoadDir.
func Load(path string, handlers *registry.Handlers) ([]*domain.Workflow, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadDir(path, handlers)
	}
	return LoadFile(path, handlers)
}

func decode(raw map[string]any) (WorkflowDocument, error) {
	var doc WorkflowDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return doc, err
	}
	if err := dec.Decode(raw); err != nil {
		return doc, err
	}
	return doc, nil
}

// Build converts a document into a validated workflow.
func Build(doc WorkflowDocument, handlers *registry.Handlers) (*domain.Workflow, error) {
	wf := &domain.Workflow{
		Name:        doc.Name,
		Description: doc.Description,
		EntryStage:  doc.Entry,
		Transitions: make(map[string][]string),
	}
	for from, to := range doc.Transitions {
		wf.Transitions[from] = append(wf.Transitions[from], to...)
	}

	for _, sd := range doc.Stages {
		stage := &domain.Stage{
			Name:          sd.Name,
			Description:   sd.Description,
			Prerequisites: sd.Requires,
		}
		if len(sd.To) > 0 {
			wf.Transitions[sd.Name] = append(wf.Transitions[sd.Name], sd.To...)
		}

		for _, td := range sd.Tasks {
			handler := td.Handler
			if handler == "" {
				handler = td.Name
			}
			var body domain.TaskFunc
			if handlers != nil {
				body, _ = handlers.Lookup(handler)
			}
			if body == nil {
				return nil, &UnboundHandlerError{Workflow: doc.Name, Task: td.Name, Handler: handler}
			}

			task := &domain.Task{
				Name:        td.Name,
				Description: td.Description,
				Body:        body,
			}
			for _, pd := range td.Params {
				task.Params = append(task.Params, param(pd))
			}
			stage.Tasks = append(stage.Tasks, task)
		}
		wf.Stages = append(wf.Stages, stage)
	}

	return registry.Validate(wf)
}

func param(pd ParamDocument) domain.Param {
	p := domain.Param{
		Name:        pd.Name,
		Type:        domain.ParamType(pd.Type),
		Required:    pd.Default == nil,
		Default:     pd.Default,
		HasDefault:  pd.Default != nil,
		Description: pd.Description,
		Options:     pd.Options,
	}
	if pd.Required != nil {
		p.Required = *pd.Required
	}
	return p
}
