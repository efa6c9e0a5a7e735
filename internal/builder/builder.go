package builder

import (
	"context"
	"fmt"

	"github.com/vk/stagegrid/internal/config"
	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/graph"
	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
)

// DefaultBuilder implements the logic for turning a pipeline into stages.
type DefaultBuilder struct{}

// New creates a new default builder.
func New() Builder {
	return &DefaultBuilder{}
}

// Build implements the Builder interface.
func (b *DefaultBuilder) Build(ctx context.Context, p *config.Pipeline, exec *execution.Execution, g graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "pipeline", p.Name)

	if err := p.Validate(); err != nil {
		return err
	}

	// First pass: create all stages.
	if err := createStages(ctx, p, exec, g); err != nil {
		return err
	}
	logger.Debug("Build: Stage creation complete.", "stage_count", len(p.Stages))

	// Second pass: link dependencies.
	if err := linkExplicitDeps(ctx, p, g); err != nil {
		return err
	}

	// Final validation: cycle detection and parent wiring.
	if err := g.Link(ctx); err != nil {
		return fmt.Errorf("error validating dependency graph: %w", err)
	}

	logger.Info("Build: Graph construction successful.", "stages", len(p.Stages))
	return nil
}

func createStages(ctx context.Context, p *config.Pipeline, exec *execution.Execution, g graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, sc := range p.Stages {
		addr, err := stageid.Parse(sc.Name)
		if err != nil {
			return fmt.Errorf("stage '%s': %w", sc.Name, err)
		}
		s := stage.New(addr, sc.Type, exec, sc.Context)
		if err := g.AddStage(ctx, s); err != nil {
			return fmt.Errorf("adding stage '%s': %w", sc.Name, err)
		}
		logger.Debug("Created stage.", "stage", s.ID(), "type", sc.Type, "local_keys", s.Context().Len())
	}
	return nil
}

// linkExplicitDeps resolves dependencies from `depends_on` lists.
func linkExplicitDeps(ctx context.Context, p *config.Pipeline, g graph.Graph) error {
	baseLogger := ctxlog.FromContext(ctx)
	for _, sc := range p.Stages {
		to := stageid.MustParse(sc.Name)
		for _, dep := range sc.DependsOn {
			from, err := stageid.Parse(dep)
			if err != nil {
				return fmt.Errorf("stage '%s' depends on invalid identifier '%s': %w", sc.Name, dep, err)
			}
			baseLogger.Debug("Linking explicit dependency.", "from_stage_id", dep, "to_stage_id", sc.Name)
			if err := g.AddDependency(ctx, *from, *to); err != nil {
				return fmt.Errorf("error linking explicit dependency: %w", err)
			}
		}
	}
	return nil
}
