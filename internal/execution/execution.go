// Package execution models the run that a set of stages belongs to.
package execution

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// Type is the kind of run. Only pipeline runs carry a trigger payload.
type Type = stagecontext.ExecutionType

const (
	Pipeline      = stagecontext.PipelineExecution
	Orchestration = stagecontext.OrchestrationExecution
)

// ParseType converts a configuration string into a Type. An empty string
// selects Pipeline.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Pipeline):
		return Pipeline, nil
	case string(Orchestration):
		return Orchestration, nil
	default:
		return "", fmt.Errorf("unknown execution type %q: must be %q or %q", s, Pipeline, Orchestration)
	}
}

// Execution is one run of a pipeline definition.
type Execution struct {
	id      string
	name    string
	typ     Type
	trigger stagecontext.Map
}

// New creates an execution with a random ID. The trigger is copied and kept
// only for pipeline executions.
func New(name string, typ Type, trigger map[string]any) *Execution {
	return NewWithID(uuid.NewString(), name, typ, trigger)
}

// NewWithID is New with a caller-chosen ID, used to resume an earlier run
// against a persistent output store.
func NewWithID(id, name string, typ Type, trigger map[string]any) *Execution {
	e := &Execution{id: id, name: name, typ: typ}
	if typ == Pipeline && len(trigger) > 0 {
		e.trigger = maps.Clone(trigger)
	}
	return e
}

// ID returns the unique run identifier.
func (e *Execution) ID() string { return e.id }

// Name returns the pipeline name.
func (e *Execution) Name() string { return e.name }

// Type implements stagecontext.Execution.
func (e *Execution) Type() Type { return e.typ }

// Trigger implements stagecontext.Execution. It is empty for non-pipeline
// executions.
func (e *Execution) Trigger() stagecontext.Values {
	if e.typ != Pipeline {
		return stagecontext.Empty
	}
	return e.trigger
}
