package app

import (
	"github.com/eapp-modeling/gridpool/internal/registry"
	"github.com/eapp-modeling/gridpool/modules/fetch"
	"github.com/eapp-modeling/gridpool/modules/shell"
	"github.com/eapp-modeling/gridpool/modules/summary"
)

// coreModules are the action modules registered when the caller supplies
// none of its own.
var coreModules = []registry.Module{
	&shell.Module{},
	&fetch.Module{},
	&summary.Module{},
}
