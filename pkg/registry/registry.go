// Package registry holds the static resource/action catalog the dispatcher resolves against.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
)

const logPrefix = "registry:registry"

// Registry maps resource names to resources. It is built once at startup and is read-only
// afterwards, so concurrent readers need no locking.
type Registry struct {
	resources map[string]*Resource
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]*Resource)}
}

// Register adds res under name.
func (r *Registry) Register(name string, res *Resource) error {
	if name == "" {
		return fmt.Errorf("%s - resource name is required", logPrefix)
	}
	if res == nil {
		return fmt.Errorf("%s - resource %s is nil", logPrefix, name)
	}
	if _, ok := r.resources[name]; ok {
		return &RegistryError{
			Code:    CodeDuplicateResource,
			Message: fmt.Sprintf("Resource %s is already registered", name),
			Details: map[string]string{"resource": name},
		}
	}
	r.resources[name] = res
	slog.Debug(fmt.Sprintf("%s - registered %s (%d actions)", logPrefix, name, len(res.actions)))
	return nil
}

// Resources returns the sorted resource names.
func (r *Registry) Resources() []string {
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the resource called name.
func (r *Registry) Resolve(name string) (*Resource, error) {
	res, ok := r.resources[name]
	if !ok {
		return nil, ErrUnknownResource(name)
	}
	return res, nil
}

// ResolveAction resolves a resource and then one of its actions. Repeated calls return the
// same *Action.
func (r *Registry) ResolveAction(resource, action string) (*Resource, *Action, error) {
	res, err := r.Resolve(resource)
	if err != nil {
		return nil, nil, err
	}
	a, err := res.Action(action)
	if err != nil {
		return res, nil, ErrUnknownAction(resource, action)
	}
	return res, a, nil
}

// Describe lists every resource with its actions and parameter specs.
func (r *Registry) Describe() []ResourceDescription {
	out := make([]ResourceDescription, 0, len(r.resources))
	for _, name := range r.Resources() {
		res := r.resources[name]
		desc := ResourceDescription{
			Name:        name,
			Description: res.Description,
			Version:     res.Version,
			Actions:     make([]ActionDescription, 0, len(res.actions)),
		}
		for _, actionName := range res.ActionNames() {
			a := res.actions[actionName]
			params := make([]ParamDescription, 0, len(a.Params))
			for _, p := range a.Params {
				params = append(params, ParamDescription{
					Name:        p.Name,
					Kind:        p.Kind.String(),
					Required:    p.Required,
					Default:     p.Default,
					Description: p.Description,
				})
			}
			desc.Actions = append(desc.Actions, ActionDescription{
				Name:        a.Name,
				Description: a.Description,
				Params:      params,
			})
		}
		out = append(out, desc)
	}
	return out
}
