package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

var methods = map[string]dynamo.Method{
	"bdf":   NewBDF,
	"rk45":  NewRK45,
	"rk4":   NewRK4,
	"euler": NewEuler,
}

// Lookup returns the method registered under name.
func Lookup(name string) (dynamo.Method, error) {
	m, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integration method %q (available: %v)", dynamo.ErrInvalidParameter, name, Names())
	}
	return m, nil
}

func Names() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Adaptive reports whether the method controls its step from an error
// estimate.
func Adaptive(name string) bool {
	return name == "bdf" || name == "rk45"
}
