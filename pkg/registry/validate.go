package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/schema"
)

// ErrInvalidWorkflow is returned for structural problems that have no more specific error type.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// Validate checks wf and returns a frozen copy with canonical parameter schemas.
// Later changes to wf do not affect the copy.
func Validate(wf *domain.Workflow) (*domain.Workflow, error) {
	if wf == nil || strings.TrimSpace(wf.Name) == "" {
		return nil, fmt.Errorf("%w: workflow has no name", ErrInvalidWorkflow)
	}
	if len(wf.Stages) == 0 {
		return nil, fmt.Errorf("%w: workflow %q has no stages", ErrInvalidWorkflow, wf.Name)
	}

	out := &domain.Workflow{
		Name:        wf.Name,
		Description: wf.Description,
		EntryStage:  wf.EntryStage,
		Stages:      make([]*domain.Stage, 0, len(wf.Stages)),
		Transitions: make(map[string][]string, len(wf.Transitions)),
	}

	stageNames := make(map[string]bool, len(wf.Stages))
	for _, s := range wf.Stages {
		if s == nil || s.Name == "" {
			return nil, fmt.Errorf("%w: workflow %q has an unnamed stage", ErrInvalidWorkflow, wf.Name)
		}
		if stageNames[s.Name] {
			return nil, fmt.Errorf("%w: workflow %q declares stage %q twice", ErrInvalidWorkflow, wf.Name, s.Name)
		}
		stageNames[s.Name] = true

		stage, err := freezeStage(wf.Name, s)
		if err != nil {
			return nil, err
		}
		out.Stages = append(out.Stages, stage)
	}

	for _, from := range slices.Sorted(maps.Keys(wf.Transitions)) {
		if !stageNames[from] {
			return nil, &domain.InvalidTransitionError{Workflow: wf.Name, From: from, Reason: "source stage is not defined"}
		}
		seen := make(map[string]bool)
		targets := make([]string, 0, len(wf.Transitions[from]))
		for _, to := range wf.Transitions[from] {
			if !stageNames[to] {
				return nil, &domain.InvalidTransitionError{Workflow: wf.Name, From: from, To: to, Reason: "target stage is not defined"}
			}
			if seen[to] {
				continue
			}
			seen[to] = true
			targets = append(targets, to)
		}
		out.Transitions[from] = targets
	}

	entry := out.Entry()
	entryStage, ok := out.Stage(entry)
	if !ok {
		return nil, &domain.UnknownStageError{Workflow: wf.Name, Stage: entry}
	}
	// A new session has an empty store, so any prerequisite on the entry stage would fail forever.
	if len(entryStage.Prerequisites) > 0 {
		return nil, &domain.UnsatisfiableEntryError{
			Workflow:      wf.Name,
			Stage:         entry,
			Prerequisites: entryStage.Prerequisites,
		}
	}
	out.EntryStage = entry

	return out, nil
}

func freezeStage(workflow string, s *domain.Stage) (*domain.Stage, error) {
	out := &domain.Stage{
		Name:          s.Name,
		Description:   s.Description,
		Tasks:         make([]*domain.Task, 0, len(s.Tasks)),
		Prerequisites: slices.Clone(s.Prerequisites),
	}

	for _, path := range s.Prerequisites {
		if !validPath(path) {
			return nil, fmt.Errorf("%w: workflow %q stage %q: malformed prerequisite path %q",
				ErrInvalidWorkflow, workflow, s.Name, path)
		}
	}

	seen := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		if t == nil || t.Name == "" {
			return nil, &domain.InvalidTaskSchemaError{Workflow: workflow, Stage: s.Name, Reason: "task has no name"}
		}
		if seen[t.Name] {
			return nil, &domain.InvalidTaskSchemaError{Workflow: workflow, Stage: s.Name, Task: t.Name, Reason: "duplicate task name"}
		}
		seen[t.Name] = true

		if t.Body == nil {
			return nil, &domain.InvalidTaskSchemaError{Workflow: workflow, Stage: s.Name, Task: t.Name, Reason: "task has no body"}
		}
		params, err := schema.CheckParams(t.Params)
		if err != nil {
			return nil, &domain.InvalidTaskSchemaError{Workflow: workflow, Stage: s.Name, Task: t.Name, Reason: err.Error()}
		}
		out.Tasks = append(out.Tasks, &domain.Task{
			Name:        t.Name,
			Description: t.Description,
			Params:      params,
			Body:        t.Body,
		})
	}
	return out, nil
}

func validPath(path string) bool {
	if path == "" {
		return false
	}
	return !slices.Contains(strings.Split(path, "."), "")
}

// Unreachable lists stages that no path from the entry stage reaches.
// They are legal but usually a modelling mistake.
func Unreachable(wf *domain.Workflow) []string {
	visited := map[string]bool{wf.Entry(): true}
	queue := []string{wf.Entry()}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range wf.Next(current) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []string
	for _, s := range wf.Stages {
		if !visited[s.Name] {
			out = append(out, s.Name)
		}
	}
	return out
}
