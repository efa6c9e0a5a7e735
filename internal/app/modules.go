package app

import (
	"io"

	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/modules/emit"
	"github.com/vk/stagegrid/modules/env_vars"
	"github.com/vk/stagegrid/modules/fail"
	"github.com/vk/stagegrid/modules/print"
)

// coreModules is the definitive list of all modules that are compiled into
// the stagegrid binary. Printed output goes to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&emit.Module{},
		&env_vars.Module{},
		&fail.Module{},
		&print.Module{Out: outW},
	}
}
