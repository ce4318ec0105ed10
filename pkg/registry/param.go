package registry

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Kind is the value type a parameter expects. String-only transports use it to coerce input.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "any"
	}
}

// Coerce converts v to the kind's Go type. KindAny returns v unchanged.
func (k Kind) Coerce(v interface{}) (interface{}, error) {
	switch k {
	case KindString:
		return cast.ToStringE(v)
	case KindInt:
		return toIntE(v)
	case KindFloat:
		return cast.ToFloat64E(v)
	case KindBool:
		return cast.ToBoolE(v)
	default:
		return v, nil
	}
}

// toIntE is cast.ToIntE except fractional floats are rejected instead of truncated.
func toIntE(v interface{}) (int, error) {
	switch f := v.(type) {
	case float64:
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%v is not a whole number", f)
		}
	case float32:
		if float64(f) != math.Trunc(float64(f)) {
			return 0, fmt.Errorf("%v is not a whole number", f)
		}
	}
	return cast.ToIntE(v)
}

// Param declares one parameter of an action. A parameter without a default is required.
type Param struct {
	Name        string      `json:"name"`
	Kind        Kind        `json:"-"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Required declares a parameter the caller must supply.
func Required(name string, kind Kind, description string) Param {
	return Param{Name: name, Kind: kind, Required: true, Description: description}
}

// Optional declares a parameter with a default used when the caller omits it.
func Optional(name string, kind Kind, def interface{}, description string) Param {
	return Param{Name: name, Kind: kind, Default: def, Description: description}
}

// Args are the bound arguments of one invocation. Only keys the caller supplied are
// present; getters fall back to the action's declared default.
type Args struct {
	values map[string]interface{}
	params map[string]Param
}

// NewArgs binds values to params without validation. Use dispatcher.Bind for caller input.
func NewArgs(params []Param, values map[string]interface{}) Args {
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Args{values: copied, params: byName}
}

// Supplied returns a copy of the values the caller supplied.
func (a Args) Supplied() map[string]interface{} {
	out := make(map[string]interface{}, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Has reports whether the caller supplied name.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Value returns the supplied value or the declared default.
func (a Args) Value(name string) (interface{}, bool) {
	if v, ok := a.values[name]; ok {
		return v, true
	}
	if p, ok := a.params[name]; ok && !p.Required {
		return p.Default, true
	}
	return nil, false
}

func (a Args) lookup(name string) (interface{}, error) {
	v, ok := a.Value(name)
	if !ok {
		return nil, fmt.Errorf("parameter %s has no value", name)
	}
	return v, nil
}

// String returns name as a string.
func (a Args) String(name string) (string, error) {
	v, err := a.lookup(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", ErrInvalidParameter(name, KindString, err)
	}
	return s, nil
}

// Int returns name as an int. JSON numbers and numeric strings are accepted.
func (a Args) Int(name string) (int, error) {
	v, err := a.lookup(name)
	if err != nil {
		return 0, err
	}
	i, err := toIntE(v)
	if err != nil {
		return 0, ErrInvalidParameter(name, KindInt, err)
	}
	return i, nil
}

// Float returns name as a float64.
func (a Args) Float(name string) (float64, error) {
	v, err := a.lookup(name)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, ErrInvalidParameter(name, KindFloat, err)
	}
	return f, nil
}

// Bool returns name as a bool. "true", "1", "false", "0" strings are accepted.
func (a Args) Bool(name string) (bool, error) {
	v, err := a.lookup(name)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, ErrInvalidParameter(name, KindBool, err)
	}
	return b, nil
}

// Strings returns several string parameters at once, in the order asked.
func (a Args) Strings(names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		s, err := a.String(name)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
