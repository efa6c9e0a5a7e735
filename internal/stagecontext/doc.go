// Package stagecontext resolves configuration keys for a single pipeline
// stage.
//
// # Resolution Order
//
// A View is bound to one stage and owns that stage's local overrides. Reads
// fall through an ordered search path:
//
//  1. the local mapping owned by the view,
//  2. the outputs of the stage's ancestors, nearest ancestor first,
//  3. the trigger payload of the enclosing execution, only for
//     pipeline-typed executions and only through GetAll.
//
// Get stops at the first source that defines the key and never looks at the
// trigger. GetAll collects every binding in proximity order:
//
//	[local] ++ [ancestor outputs, nearest first] ++ [trigger]
//
// # Presence
//
// Presence is always reported explicitly. A key bound to nil is present, and
// it shadows farther bindings exactly like any other value. Absence is never
// an error: Get returns (nil, false) and GetAll returns an empty slice.
//
// # Container Semantics
//
// Put, Delete, Contains, Len, Keys and All operate on the local mapping only.
// Len can therefore be smaller than the number of keys Get can resolve; the
// local mapping is the override set, not the resolved view.
//
// # Concurrency
//
// The local mapping is guarded by a RWMutex so the goroutine running the
// stage can write while others read. Ancestor outputs and triggers are read
// through the Values interface and are never mutated.
package stagecontext
