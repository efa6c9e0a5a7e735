package stagecontext

import (
	"iter"
	"maps"
	"slices"
	"sync"
)

// View is the context of one stage: a mutable local mapping layered over the
// outputs of the stage's ancestors and the execution trigger.
//
// The zero value is not usable; construct views with New, NewWithLocal or
// Copy.
type View struct {
	mu    sync.RWMutex
	stage Stage
	local map[string]any
}

// New returns a view bound to stage with an empty local mapping.
func New(stage Stage) *View {
	return &View{
		stage: stage,
		local: make(map[string]any),
	}
}

// NewWithLocal returns a view bound to stage whose local mapping holds the
// entries of local. The map is copied; later changes to it by the caller are
// not visible through the view.
func NewWithLocal(stage Stage, local map[string]any) *View {
	v := &View{
		stage: stage,
		local: make(map[string]any, len(local)),
	}
	maps.Copy(v.local, local)
	return v
}

// Copy returns a view bound to the same stage as other, holding an
// independent copy of other's local mapping.
func Copy(other *View) *View {
	return other.Clone()
}

// Clone is the method form of Copy.
func (v *View) Clone() *View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return NewWithLocal(v.stage, v.local)
}

// Stage returns the stage the view is bound to.
func (v *View) Stage() Stage {
	return v.stage
}

// Put binds key to value in the local mapping, replacing any previous local
// binding. Ancestor outputs are never touched.
func (v *View) Put(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.local[key] = value
}

// Delete removes key from the local mapping. A deleted key may still resolve
// through the ancestors.
func (v *View) Delete(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.local, key)
}

// Contains reports whether key is bound in the local mapping.
func (v *View) Contains(key string) bool {
	_, ok := v.lookupLocal(key)
	return ok
}

// Len returns the number of local entries.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.local)
}

// Keys returns the local keys in sorted order.
func (v *View) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.local))
}

// All iterates over a snapshot of the local entries in key order.
func (v *View) All() iter.Seq2[string, any] {
	snapshot := v.Local()
	return func(yield func(string, any) bool) {
		for _, k := range slices.Sorted(maps.Keys(snapshot)) {
			if !yield(k, snapshot[k]) {
				return
			}
		}
	}
}

// Local returns a copy of the local mapping.
func (v *View) Local() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.local)
}

// Get resolves key. A local binding wins; otherwise the nearest ancestor whose
// outputs contain key supplies the value. The trigger is not consulted.
func (v *View) Get(key string) (any, bool) {
	if value, ok := v.lookupLocal(key); ok {
		return value, true
	}
	for _, outputs := range v.ancestorOutputs() {
		if value, ok := outputs.Lookup(key); ok {
			return value, true
		}
	}
	return nil, false
}

// GetAll returns every binding of key ordered by proximity: the local value,
// then ancestor outputs nearest first, then the trigger value for pipeline
// executions. Sources without the key contribute nothing and equal values are
// kept. The result is never nil.
func (v *View) GetAll(key string) []any {
	result := []any{}
	for _, outputs := range v.ancestorOutputs() {
		if value, ok := outputs.Lookup(key); ok {
			result = append(result, value)
		}
	}

	if value, ok := v.lookupLocal(key); ok {
		result = slices.Insert(result, 0, value)
	}

	if value, ok := v.trigger().Lookup(key); ok {
		result = append(result, value)
	}

	return result
}

func (v *View) lookupLocal(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.local[key]
	return value, ok
}

// ancestorOutputs returns the outputs of the bound stage's ancestors, nearest
// first, skipping entries that cannot be read.
func (v *View) ancestorOutputs() []Values {
	if v.stage == nil {
		return nil
	}
	ancestors := v.stage.Ancestors()
	outputs := make([]Values, 0, len(ancestors))
	for _, a := range ancestors {
		if a == nil {
			continue
		}
		if o := a.Outputs(); o != nil {
			outputs = append(outputs, o)
		}
	}
	return outputs
}

// trigger returns the trigger payload when the bound stage belongs to a
// pipeline execution and an empty source otherwise.
func (v *View) trigger() Values {
	if v.stage == nil {
		return Empty
	}
	exec := v.stage.Execution()
	if exec == nil || exec.Type() != PipelineExecution {
		return Empty
	}
	if t := exec.Trigger(); t != nil {
		return t
	}
	return Empty
}
