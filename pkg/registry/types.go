package registry

// ResourceDescription is the introspection view of one resource.
type ResourceDescription struct {
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Actions     []ActionDescription `json:"actions" yaml:"actions"`
}

// ActionDescription is the introspection view of one action.
type ActionDescription struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Params      []ParamDescription `json:"params" yaml:"params"`
}

// ParamDescription is the introspection view of one parameter.
type ParamDescription struct {
	Name        string      `json:"name" yaml:"name"`
	Kind        string      `json:"kind" yaml:"kind"`
	Required    bool        `json:"required" yaml:"required"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}
