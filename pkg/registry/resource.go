package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ActionFunc is the callable behind an action.
type ActionFunc func(ctx context.Context, args Args) (interface{}, error)

// Action is one publicly invocable operation of a resource.
type Action struct {
	Name        string
	Description string
	Params      []Param
	Fn          ActionFunc
}

// Param returns the declared parameter called name.
func (a *Action) Param(name string) (Param, bool) {
	for _, p := range a.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// RequiredParams returns the parameters without a default, in declaration order.
func (a *Action) RequiredParams() []Param {
	var out []Param
	for _, p := range a.Params {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Resource is a named bundle of actions, built from an explicit manifest.
type Resource struct {
	Description string
	Version     string
	actions     map[string]*Action
}

// NewResource builds a resource from its action manifest. Only the listed actions are ever
// discoverable; non-public names and duplicate action or parameter names are rejected.
func NewResource(description, version string, actions ...Action) (*Resource, error) {
	res := &Resource{
		Description: description,
		Version:     version,
		actions:     make(map[string]*Action, len(actions)),
	}
	for i := range actions {
		a := actions[i]
		if !IsPublicName(a.Name) {
			return nil, fmt.Errorf("registry:resource - action name %q is not public", a.Name)
		}
		if a.Fn == nil {
			return nil, fmt.Errorf("registry:resource - action %q has no function", a.Name)
		}
		if _, dup := res.actions[a.Name]; dup {
			return nil, fmt.Errorf("registry:resource - action %q declared twice", a.Name)
		}
		seen := make(map[string]bool, len(a.Params))
		for _, p := range a.Params {
			if !IsPublicName(p.Name) {
				return nil, fmt.Errorf("registry:resource - action %q has invalid parameter name %q", a.Name, p.Name)
			}
			if seen[p.Name] {
				return nil, fmt.Errorf("registry:resource - action %q declares parameter %q twice", a.Name, p.Name)
			}
			seen[p.Name] = true
		}
		a.Params = append([]Param(nil), a.Params...)
		res.actions[a.Name] = &a
	}
	return res, nil
}

// MustResource is NewResource that panics on an invalid manifest.
func MustResource(description, version string, actions ...Action) *Resource {
	res, err := NewResource(description, version, actions...)
	if err != nil {
		panic(err)
	}
	return res
}

// IsPublicName reports whether name may be exposed as an action or parameter.
func IsPublicName(name string) bool {
	if name == "" || strings.HasPrefix(name, "_") || strings.Contains(name, "__") {
		return false
	}
	return !strings.ContainsAny(name, " \t\r\n")
}

// Actions returns the resource's public actions keyed by name.
func (r *Resource) Actions() map[string]*Action {
	out := make(map[string]*Action, len(r.actions))
	for name, a := range r.actions {
		out[name] = a
	}
	return out
}

// ActionNames returns the sorted action names.
func (r *Resource) ActionNames() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Action resolves one action by name.
func (r *Resource) Action(name string) (*Action, error) {
	a, ok := r.actions[name]
	if !ok {
		return nil, &RegistryError{
			Code:    CodeUnknownAction,
			Message: fmt.Sprintf("Action %s is invalid!", name),
			Details: map[string]interface{}{"action": name, "available": r.ActionNames()},
		}
	}
	return a, nil
}
