package guard

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v2"
)

var (
	// ErrDuplicateRoute is returned when a route name appears twice in a table.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrInvalidRoute is returned for a route without name or path.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrUnboundRoute is returned when a route has no handler or a handler has no route.
	ErrUnboundRoute = errors.New("unbound route")
)

//go:embed routes.yaml
var defaultRoutes []byte

// Route binds a named handler to a path and its protection requirement.
type Route struct {
	Name     string      `yaml:"name"`
	Path     string      `yaml:"path"`
	Methods  []string    `yaml:"methods"`
	Requires Requirement `yaml:"requires"`
}

// RouteTable is the ordered list of console routes.
type RouteTable struct {
	Routes []Route `yaml:"routes"`

	byName map[string]Route
}

// DefaultRouteTable returns the built-in route table.
func DefaultRouteTable() (*RouteTable, error) {
	return ParseRouteTable(defaultRoutes)
}

// LoadRouteTable reads a route table from path, or returns the built-in
// table when path is empty.
func LoadRouteTable(path string) (*RouteTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRouteTable()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}

	return ParseRouteTable(data)
}

// ParseRouteTable decodes and validates a YAML route table.
func ParseRouteTable(data []byte) (*RouteTable, error) {
	var table RouteTable
	if err := yaml.UnmarshalStrict(data, &table); err != nil {
		return nil, fmt.Errorf("decode route table: %w", err)
	}

	table.byName = make(map[string]Route, len(table.Routes))

	for i, route := range table.Routes {
		if route.Name == "" || !strings.HasPrefix(route.Path, "/") {
			return nil, fmt.Errorf("%w: #%d %q %q", ErrInvalidRoute, i, route.Name, route.Path)
		}

		if _, ok := table.byName[route.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, route.Name)
		}

		if route.Requires == "" {
			route.Requires = Public
		}

		if len(route.Methods) == 0 {
			route.Methods = []string{http.MethodGet}
		}

		table.Routes[i] = route
		table.byName[route.Name] = route
	}

	return &table, nil
}

// Lookup returns the named route.
func (t *RouteTable) Lookup(name string) (Route, bool) {
	route, ok := t.byName[name]

	return route, ok
}

// Requirement returns the protection requirement of the named route. Routes
// the table does not know are public, so unmatched paths reach the not found
// page.
func (t *RouteTable) Requirement(name string) Requirement {
	if route, ok := t.byName[name]; ok {
		return route.Requires
	}

	return Public
}

// Bind registers every route on router with the handler of the same name.
// Each route needs a handler and each handler a route.
func (t *RouteTable) Bind(router *mux.Router, handlers map[string]http.Handler) error {
	var errs []error

	for _, route := range t.Routes {
		handler, ok := handlers[route.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: no handler for %s", ErrUnboundRoute, route.Name))

			continue
		}

		router.Handle(route.Path, handler).Methods(route.Methods...).Name(route.Name)
	}

	for name := range handlers {
		if _, ok := t.byName[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: no route for %s", ErrUnboundRoute, name))
		}
	}

	return errors.Join(errs...)
}
