package config

// Pipeline is the unified representation of one pipeline definition.
type Pipeline struct {
	Name string
	// Type is the execution type, "pipeline" or "orchestration". Empty means
	// "pipeline".
	Type string
	// Trigger is the default trigger payload; callers may overlay their own.
	Trigger map[string]any
	Stages  []*Stage
}

// Stage is the format-agnostic representation of a `stage` block.
type Stage struct {
	Name      string
	Type      string
	DependsOn []string
	// Context holds the stage's local values as plain Go data.
	Context map[string]any
}

// StageTypes returns the distinct stage types in declaration order.
func (p *Pipeline) StageTypes() []string {
	seen := make(map[string]struct{}, len(p.Stages))
	var types []string
	for _, s := range p.Stages {
		if _, ok := seen[s.Type]; ok {
			continue
		}
		seen[s.Type] = struct{}{}
		types = append(types, s.Type)
	}
	return types
}
