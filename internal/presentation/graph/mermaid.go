package graph

import (
	"fmt"
	"strings"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedStages []string
	CurrentStage  string
}

// OverlayFor derives an overlay from a session's position and history.
func OverlayFor(sess *domain.Session) *GraphOverlay {
	o := &GraphOverlay{CurrentStage: sess.CurrentStage}
	for _, inv := range sess.History {
		o.VisitedStages = append(o.VisitedStages, inv.Stage)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a workflow's stage graph.
// Shapes:
// - Entry stage: ((Circle))
// - Terminal stage: ([Stadium])
// - Default: [Rectangle]
// Edges into a stage with prerequisites are labeled with the required state paths.
func GenerateMermaid(wf *domain.Workflow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := wf.Entry()
	for _, stage := range wf.Stages {
		safeID := sanitizeMermaidID(stage.Name)

		opener, closer := "[", "]"
		switch {
		case stage.Name == entry:
			opener, closer = "((", "))"
		case wf.IsTerminal(stage.Name):
			opener, closer = "([", "])"
		}

		label := stage.Name
		if n := len(stage.Tasks); n > 0 {
			label = fmt.Sprintf("%s <br/> %d task%s", stage.Name, n, plural(n))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)

		for _, target := range wf.Next(stage.Name) {
			arrow := "-->"
			if to, ok := wf.Stage(target); ok && len(to.Prerequisites) > 0 {
				arrow = fmt.Sprintf("-- \"requires %s\" -->", escape(strings.Join(to.Prerequisites, ", ")))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(target))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlighted nodes readable on both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedStages {
			safeID := sanitizeMermaidID(name)
			if safeID == "" || seen[safeID] || name == overlay.CurrentStage {
				continue
			}
			if _, ok := wf.Stage(name); !ok {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentStage != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStage))
		}
	}

	return sb.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
