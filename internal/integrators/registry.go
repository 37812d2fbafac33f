package integrators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

const Default = "rk45"

var registry = map[string]func() dynamo.Solver{
	"rk45":  func() dynamo.Solver { return NewRK45() },
	"dopri": func() dynamo.Solver { return NewDopri() },
	"rk4":   func() dynamo.Solver { return NewRK4() },
	"euler": func() dynamo.Solver { return NewEuler() },
}

// New returns the solver registered under name. An empty name selects Default.
func New(name string) (dynamo.Solver, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	fn, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
