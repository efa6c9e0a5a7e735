// Package builder turns a format-agnostic pipeline model into a linked
// execution graph.
//
// # Why Builder Exists
//
// The builder is the bridge between declarative configuration and the
// runtime graph. Loaders only know about files and blocks; the executor only
// knows about stages and edges. The builder owns the translation between the
// two so neither side needs to know the other.
//
// # How It Works
//
//  1. **Validate:** Structural checks on the model (names, types, dependencies)
//  2. **Create:** One stage per `stage` block, each bound to the execution and
//     holding a copy of its configured context as local values
//  3. **Link:** One edge per `depends_on` entry, then graph.Link to reject
//     cycles and wire parents, which is what ancestor resolution walks
//
// Example:
//
//	stage "mid"  { depends_on = ["root"] }
//	stage "leaf" { depends_on = ["mid"] }
//
// produces the edges root → mid → leaf, and leaf's context view sees
// ancestors [mid, root] in that order.
package builder

import (
	"context"

	"github.com/vk/stagegrid/internal/config"
	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/graph"
)

// Builder populates a graph from a pipeline model.
//
// Build must be called once per graph, before any stage runs.
type Builder interface {
	Build(ctx context.Context, p *config.Pipeline, exec *execution.Execution, g graph.Graph) error
}
