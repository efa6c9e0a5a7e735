package stagecontext

// ExecutionType tags the kind of run a stage belongs to.
type ExecutionType string

const (
	// PipelineExecution is a run started by a trigger. Only pipeline runs
	// expose their trigger payload to GetAll.
	PipelineExecution ExecutionType = "pipeline"
	// OrchestrationExecution is an ad-hoc run with no trigger payload.
	OrchestrationExecution ExecutionType = "orchestration"
)

// Values is a read-only key/value source with explicit presence.
type Values interface {
	// Lookup returns the value bound to key and whether the key is present.
	// A present key may be bound to nil.
	Lookup(key string) (any, bool)
}

// Ancestor is an upstream stage whose outputs are visible downstream.
type Ancestor interface {
	// Outputs returns the outputs the stage has published so far. It is
	// never nil; a stage that has not completed returns an empty source.
	Outputs() Values
}

// Execution is the run a stage belongs to.
type Execution interface {
	Type() ExecutionType
	// Trigger returns the trigger payload. Callers only consult it for
	// pipeline-typed executions.
	Trigger() Values
}

// Stage is the non-owning back-reference a View resolves through.
type Stage interface {
	// Ancestors returns the upstream stages, nearest first. The slice is
	// computed once and must not be modified by callers.
	Ancestors() []Ancestor
	// Execution returns the enclosing run, or nil if the stage is detached.
	Execution() Execution
}

// Map is a plain map that satisfies Values.
type Map map[string]any

// Lookup implements Values.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Empty is a Values with no keys.
var Empty Values = Map(nil)
