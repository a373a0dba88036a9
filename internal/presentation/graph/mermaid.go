package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/pkg/domain"
)

// Overlay contains run-state data to visualize on the graph.
type Overlay struct {
	Statuses map[string]domain.RunStatus
}

// GenerateMermaid produces a Mermaid flowchart of a workflow's job DAG.
// Shapes carry semantics:
// - Entry jobs (no needs): ((Circle))
// - Conditional jobs (an `only` rule): [/Parallelogram/]
// - Default: [Rectangle]
// Dependency edges are solid; `only` conditions annotate the node label.
// The overlay, if provided, colors jobs by their last run status.
func GenerateMermaid(wf *domain.Workflow, overlay *Overlay) (string, error) {
	dag, err := scheduler.BuildDAG(wf.Jobs)
	if err != nil {
		return "", fmt.Errorf("cannot render %s: %w", wf.Name, err)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range dag.Order() {
		job := dag.Job(id)
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case len(job.Needs) == 0:
			opener, closer = "((", "))"
		case job.Only != nil:
			opener, closer = "[/", "/]"
		}

		label := id
		if job.Only != nil {
			label = fmt.Sprintf("%s <br/> only: %s", id, ruleLabel(*job.Only))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, need := range job.Needs {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(need), safeID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high-contrast regardless of theme.
		sb.WriteString("    classDef passed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-width:1px,color:#000;\n")

		for _, id := range dag.Order() {
			switch overlay.Statuses[id] {
			case domain.StatusPassed:
				sb.WriteString(fmt.Sprintf("    class %s passed;\n", sanitizeMermaidID(id)))
			case domain.StatusFailed:
				sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(id)))
			case domain.StatusSkipped:
				sb.WriteString(fmt.Sprintf("    class %s skipped;\n", sanitizeMermaidID(id)))
			}
		}
	}

	return sb.String(), nil
}

func ruleLabel(rule domain.TriggerRule) string {
	parts := make([]string, 0, len(rule.Events))
	for _, ev := range rule.Events {
		parts = append(parts, string(ev))
	}
	refs := append(append([]string{}, rule.Branches...), rule.Tags...)
	label := strings.Join(parts, "/")
	if len(refs) > 0 {
		label += " on " + strings.Join(refs, ",")
	}
	// Escape double quotes for Mermaid labels.
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
