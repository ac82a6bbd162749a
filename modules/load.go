package modules

import (
	"fmt"

	"github.com/iota-uz/orgchart/modules/orgchart"
	"github.com/iota-uz/orgchart/pkg/application"
)

// BuiltInModules returns the modules every orgchart binary registers.
func BuiltInModules(opts *orgchart.ModuleOptions) []application.Module {
	return []application.Module{
		orgchart.NewModule(opts),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return fmt.Errorf("register module %s: %w", module.Name(), err)
		}
	}
	return nil
}
