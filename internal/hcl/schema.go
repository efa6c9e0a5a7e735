package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all top-level blocks from any file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Stages    []*stageBlock    `hcl:"stage,block"`
}

// pipelineBlock maps a `pipeline "name" { ... }` block.
type pipelineBlock struct {
	Name    string         `hcl:"name,label"`
	Type    *string        `hcl:"type,optional"`
	Trigger hcl.Expression `hcl:"trigger,optional"`
}

// stageBlock maps a `stage "name" { ... }` block.
type stageBlock struct {
	Name      string         `hcl:"name,label"`
	Type      string         `hcl:"type"`
	DependsOn []string       `hcl:"depends_on,optional"`
	Context   hcl.Expression `hcl:"context,optional"`
}
