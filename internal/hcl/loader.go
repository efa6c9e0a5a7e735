package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/stagegrid/internal/config"
	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the `env` variable. Defaults to os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{Environ: processEnviron}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths and merges their blocks into one
// pipeline. At most one `pipeline` block may appear across all files; without
// one the pipeline is named after the first file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	environ := processEnviron
	if l.Environ != nil {
		environ = l.Environ
	}
	evalCtx := newEvalContext(environ())

	parser := hclparse.NewParser()
	pipeline := &config.Pipeline{}
	var header *pipelineBlock

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Pipelines {
			if header != nil {
				return nil, fmt.Errorf("%s: duplicate pipeline block '%s', already declared '%s'", file, p.Name, header.Name)
			}
			header = p
		}
		for _, s := range root.Stages {
			st, err := translateStage(s, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			pipeline.Stages = append(pipeline.Stages, st)
		}
	}

	if header != nil {
		if err := applyHeader(pipeline, header, evalCtx); err != nil {
			return nil, err
		}
	} else {
		base := filepath.Base(hclFiles[0])
		pipeline.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	logger.Debug("HCL loading complete.", "pipeline", pipeline.Name, "stages", len(pipeline.Stages))
	return pipeline, nil
}

func applyHeader(p *config.Pipeline, h *pipelineBlock, evalCtx *hcl.EvalContext) error {
	p.Name = h.Name
	if h.Type != nil {
		p.Type = *h.Type
	}
	trigger, err := evalMap(h.Trigger, evalCtx)
	if err != nil {
		return fmt.Errorf("pipeline '%s' trigger: %w", h.Name, err)
	}
	p.Trigger = trigger
	return nil
}

// translateStage converts the HCL-specific stage schema into the agnostic model.
func translateStage(s *stageBlock, evalCtx *hcl.EvalContext) (*config.Stage, error) {
	local, err := evalMap(s.Context, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("stage '%s' context: %w", s.Name, err)
	}
	return &config.Stage{
		Name:      s.Name,
		Type:      s.Type,
		DependsOn: s.DependsOn,
		Context:   local,
	}, nil
}

// evalMap evaluates an optional object-valued attribute.
func evalMap(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]any, error) {
	if expr == nil {
		return map[string]any{}, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	return toGoMap(val)
}
