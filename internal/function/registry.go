// Package function holds the table of pass-through functions the proxy exposes.
package function

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"mp-proxy-go/internal/config"
	"mp-proxy-go/internal/model"
)

// Built-in functions.
var (
	DraftAdd = model.Function{Name: "draft-add", Method: "POST", Path: "/cgi-bin/draft/add", ForwardBody: true}
	Token    = model.Function{Name: "token", Method: "GET", Path: "/cgi-bin/token"}
)

// Builtins returns the functions every deployment exposes.
func Builtins() []model.Function {
	return []model.Function{DraftAdd, Token}
}

// Registry is an immutable, ordered set of functions.
type Registry struct {
	functions []model.Function
}

// NewRegistry builds a Registry from the built-ins plus any [[functions]]
// entries in cfg. Entries must be unique by name and by method+path, and must
// not shadow a route the proxy serves itself.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	validate := validator.New()

	fns := Builtins()
	for i, fc := range cfg.Functions {
		fc.Method = strings.ToUpper(fc.Method)
		if err := validate.Struct(fc); err != nil {
			return nil, fmt.Errorf("functions[%d]: %w", i, err)
		}
		// Inbound trailing slashes are stripped before routing, so such a
		// route could never match.
		if len(fc.Path) > 1 && strings.HasSuffix(fc.Path, "/") {
			return nil, fmt.Errorf("functions[%d]: path %q must not end with a slash", i, fc.Path)
		}
		fns = append(fns, model.Function{
			Name:        fc.Name,
			Method:      fc.Method,
			Path:        fc.Path,
			ForwardBody: fc.ForwardBody,
		})
	}

	names := make(map[string]bool, len(fns))
	routes := make(map[string]bool, len(fns))
	for _, fn := range fns {
		if names[fn.Name] {
			return nil, fmt.Errorf("function %q declared more than once", fn.Name)
		}
		names[fn.Name] = true

		key := fn.Method + " " + normalize(fn.Path)
		if routes[key] {
			return nil, fmt.Errorf("function %q: route %s declared more than once", fn.Name, key)
		}
		routes[key] = true

		for _, reserved := range cfg.ReservedRoutes() {
			if fn.Path == reserved || strings.HasPrefix(fn.Path, reserved+"/") {
				return nil, fmt.Errorf("function %q: path %q conflicts with reserved route %q", fn.Name, fn.Path, reserved)
			}
		}
	}

	return &Registry{functions: fns}, nil
}

// All returns the registered functions in declaration order.
func (r *Registry) All() []model.Function {
	return append([]model.Function(nil), r.functions...)
}

// Lookup finds the function serving method and path. A single trailing slash
// on path is ignored.
func (r *Registry) Lookup(method, path string) (model.Function, bool) {
	path = normalize(path)
	for _, fn := range r.functions {
		if fn.Method == method && normalize(fn.Path) == path {
			return fn, true
		}
	}
	return model.Function{}, false
}

// Paths returns the distinct function paths, used to bound metric labels.
func (r *Registry) Paths() []string {
	seen := make(map[string]bool, len(r.functions))
	var paths []string
	for _, fn := range r.functions {
		if !seen[fn.Path] {
			seen[fn.Path] = true
			paths = append(paths, fn.Path)
		}
	}
	return paths
}

func normalize(path string) string {
	if len(path) > 1 {
		return strings.TrimSuffix(path, "/")
	}
	return path
}
