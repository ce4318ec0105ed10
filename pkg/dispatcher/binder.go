package dispatcher

import (
	"sort"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// Bind validates supplied against the action's declared parameters. Undeclared keys fail
// first, then missing required parameters. The returned Args carry only the supplied keys;
// getters fall back to declared defaults.
func Bind(action *registry.Action, supplied map[string]interface{}) (registry.Args, error) {
	var unknown []string
	for key := range supplied {
		if _, ok := action.Param(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return registry.Args{}, registry.ErrUnknownParameters(action.Name, unknown)
	}

	var missing []string
	for _, p := range action.Params {
		if !p.Required {
			continue
		}
		if _, ok := supplied[p.Name]; !ok {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return registry.Args{}, registry.ErrMissingParameters(action.Name, missing)
	}

	return registry.NewArgs(action.Params, supplied), nil
}

// CoerceStrings converts string-typed input (query strings, positional CLI words) to each
// declared parameter's Kind. Undeclared keys are passed through untouched so Bind can
// report them.
func CoerceStrings(action *registry.Action, raw map[string]string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		p, ok := action.Param(key)
		if !ok {
			out[key] = value
			continue
		}
		v, err := p.Kind.Coerce(value)
		if err != nil {
			return nil, registry.ErrInvalidParameter(key, p.Kind, err)
		}
		out[key] = v
	}
	return out, nil
}
