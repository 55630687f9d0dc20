package interpret

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Detail selects how much of the session view a rendering carries.
type Detail int

const (
	// Brief renders the outcome plus stage, state, tool names and transitions.
	// Used after the handshake to keep agent context small.
	Brief Detail = iota
	// Comprehensive adds every tool's description and parameters.
	Comprehensive
)

// Presenter renders responses as agent-facing text.
type Presenter struct {
	// Detail applies to every response except handshakes, which are always comprehensive.
	Detail Detail
}

// Render implements the rendering half of ports.Interpreter.
func (p Presenter) Render(resp *domain.Response) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(Outcome(resp))

	if resp.View == nil {
		return b.String()
	}
	b.WriteString("\n\n")
	detail := p.Detail
	if resp.Transition == nil && resp.Result == nil && resp.Missing == nil &&
		resp.Prerequisites == nil && resp.Error == nil && resp.Status == domain.StatusOK {
		// Handshake and describe.
		detail = Comprehensive
	}
	if detail == Comprehensive {
		writeComprehensive(&b, resp.View)
	} else {
		writeBrief(&b, resp.View)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Outcome renders the headline of a response without the session view.
func Outcome(resp *domain.Response) string {
	switch resp.Status {
	case domain.StatusOK:
		switch {
		case resp.Terminated:
			return "Session terminated."
		case resp.Result != nil:
			return fmt.Sprintf("Task %s completed: %s", resp.Task, compactJSON(resp.Result))
		case resp.Transition != nil:
			return fmt.Sprintf("Moved from %s to %s.", resp.Transition.From, resp.Transition.To)
		default:
			return fmt.Sprintf("Workflow %s, session %s.", resp.Workflow, resp.SessionID)
		}

	case domain.StatusNeedsInput:
		m := resp.Missing
		var parts []string
		for _, p := range m.Missing {
			part := fmt.Sprintf("%s (%s)", p.Name, p.Type)
			if len(p.Options) > 0 {
				part += " one of " + strings.Join(p.Options, ", ")
			}
			if p.Description != "" {
				part += ": " + p.Description
			}
			parts = append(parts, part)
		}
		return fmt.Sprintf("Task %s needs more input: %s", m.Task, strings.Join(parts, "; "))

	case domain.StatusPrerequisiteFailed:
		return fmt.Sprintf("Cannot enter %s yet. Missing state: %s",
			resp.Prerequisites.Stage, strings.Join(resp.Prerequisites.Missing, ", "))

	case domain.StatusInvalidTransition:
		t := resp.Transition
		return fmt.Sprintf("Cannot move from %s to %s. Available transitions: %s",
			t.From, t.To, listOrNone(t.Available))

	default:
		if resp.Error != nil {
			return fmt.Sprintf("Error (%s): %s", resp.Error.Code, resp.Error.Message)
		}
		return "Error."
	}
}

func writeBrief(b *strings.Builder, v *domain.View) {
	fmt.Fprintf(b, "Current stage: %s\n", v.Stage)
	fmt.Fprintf(b, "State: %s\n", compactJSON(stateOrEmpty(v.State)))
	fmt.Fprintf(b, "Available tools: %s\n", listOrNone(toolNames(v.Tasks)))
	fmt.Fprintf(b, "Available transitions: %s\n", listOrNone(v.Transitions))
	if v.Pending != nil {
		fmt.Fprintf(b, "Waiting for: %s (task %s)\n", strings.Join(v.Pending.Missing, ", "), v.Pending.Task)
	}
}

func writeComprehensive(b *strings.Builder, v *domain.View) {
	fmt.Fprintf(b, "## Stage: %s\n", v.Stage)
	if v.Description != "" {
		fmt.Fprintf(b, "%s\n", v.Description)
	}
	fmt.Fprintf(b, "\nState: %s\n", compactJSON(stateOrEmpty(v.State)))

	b.WriteString("\n### Tools\n")
	if len(v.Tasks) == 0 {
		b.WriteString("none\n")
	}
	for _, t := range v.Tasks {
		writeTool(b, t)
	}

	if len(v.Controls) > 0 {
		b.WriteString("\n### Controls\n")
		for _, t := range v.Controls {
			writeTool(b, t)
		}
	}
	fmt.Fprintf(b, "\nAvailable transitions: %s\n", listOrNone(v.Transitions))
}

type inputSchema struct {
	Properties map[string]struct {
		Type        string   `json:"type"`
		Description string   `json:"description"`
		Enum        []string `json:"enum"`
	} `json:"properties"`
	Required []string `json:"required"`
}

func writeTool(b *strings.Builder, t domain.ToolSpec) {
	fmt.Fprintf(b, "- **%s**", t.Name)
	if t.Description != "" {
		fmt.Fprintf(b, ": %s", t.Description)
	}
	b.WriteString("\n")

	var s inputSchema
	if err := json.Unmarshal(t.InputSchema, &s); err != nil {
		return
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	// Required parameters first, each group alphabetical.
	slices.SortFunc(names, func(a, c string) int {
		ra, rc := slices.Contains(s.Required, a), slices.Contains(s.Required, c)
		if ra != rc {
			if ra {
				return -1
			}
			return 1
		}
		return strings.Compare(a, c)
	})
	for _, name := range names {
		p := s.Properties[name]
		line := fmt.Sprintf("  - `%s` (%s", name, p.Type)
		if !slices.Contains(s.Required, name) {
			line += ", optional"
		}
		line += ")"
		if len(p.Enum) > 0 {
			line += " one of " + strings.Join(p.Enum, ", ")
		}
		if p.Description != "" {
			line += ": " + p.Description
		}
		b.WriteString(line + "\n")
	}
}

func toolNames(tools []domain.ToolSpec) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func stateOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
