package market

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Calculator derives one or more indicator columns on a table in place.
// Indicator math itself lives outside this module; calculators registered
// here are either injected by the caller or the thin built-in derivations
// below that only reshape existing columns.
type Calculator func(t *Table) error

// Registry is an explicit name-to-calculator mapping built at construction
// time and handed to whatever component applies indicators. There is no
// process-global registration.
type Registry struct {
	calcs map[string]Calculator
}

func NewRegistry() *Registry {
	return &Registry{calcs: make(map[string]Calculator)}
}

// Register binds a calculator under a name. Re-registering a name is an
// error so wiring mistakes surface at startup.
func (r *Registry) Register(name string, c Calculator) error {
	if c == nil {
		return fmt.Errorf("nil calculator for %q", name)
	}
	if _, dup := r.calcs[name]; dup {
		return fmt.Errorf("calculator %q already registered", name)
	}
	r.calcs[name] = c
	return nil
}

// Names returns the registered calculator names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.calcs))
	for name := range r.calcs {
		out = append(out, name)
	}
	return out
}

// Apply runs the named calculators against the table in order. An unknown
// name degrades to a warning and is skipped; a calculator error aborts.
func (r *Registry) Apply(t *Table, names []string) error {
	for _, name := range names {
		calc, ok := r.calcs[name]
		if !ok {
			log.Warn().Str("calculator", name).Msg("unknown indicator calculator, skipping")
			continue
		}
		if err := calc(t); err != nil {
			return fmt.Errorf("calculator %q failed: %w", name, err)
		}
	}
	return nil
}
