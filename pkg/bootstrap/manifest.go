// Package bootstrap loads the resource manifest: which resources are enabled, their
// versions, aliases and per-resource settings such as blob URIs.
package bootstrap

import "sort"

// Manifest is the deploy-time description of the resource catalog.
type Manifest struct {
	Name      string                    `json:"name" yaml:"name"`
	Provider  string                    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Resources map[string]ResourceConfig `json:"resources" yaml:"resources"`
	// Aliases maps an extra name onto a registered resource, e.g. zacks_todos -> todos.
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// ResourceConfig is one resource entry. A nil Enabled means enabled.
type ResourceConfig struct {
	Enabled  *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Version  string            `json:"version,omitempty" yaml:"version,omitempty"`
	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Enabled reports whether name should be registered. Resources absent from the manifest
// are enabled.
func (m *Manifest) Enabled(name string) bool {
	if m == nil {
		return true
	}
	rc, ok := m.Resources[name]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// Version returns the configured version of name, or fallback.
func (m *Manifest) Version(name, fallback string) string {
	if m == nil {
		return fallback
	}
	if rc, ok := m.Resources[name]; ok && rc.Version != "" {
		return rc.Version
	}
	return fallback
}

// Setting returns resources.<name>.settings.<key>, or fallback when unset or empty.
func (m *Manifest) Setting(name, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v := m.Resources[name].Settings[key]; v != "" {
		return v
	}
	return fallback
}

// AliasNames returns the alias names sorted.
func (m *Manifest) AliasNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Aliases))
	for name := range m.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge overlays other onto m: enabled flags and versions replace, settings merge key by
// key, aliases merge.
func (m *Manifest) Merge(other *Manifest) {
	if other == nil {
		return
	}
	if other.Name != "" {
		m.Name = other.Name
	}
	if other.Provider != "" {
		m.Provider = other.Provider
	}
	if m.Resources == nil {
		m.Resources = make(map[string]ResourceConfig)
	}
	for name, rc := range other.Resources {
		cur := m.Resources[name]
		if rc.Enabled != nil {
			cur.Enabled = rc.Enabled
		}
		if rc.Version != "" {
			cur.Version = rc.Version
		}
		if len(rc.Settings) > 0 {
			merged := make(map[string]string, len(cur.Settings)+len(rc.Settings))
			for k, v := range cur.Settings {
				merged[k] = v
			}
			for k, v := range rc.Settings {
				merged[k] = v
			}
			cur.Settings = merged
		}
		m.Resources[name] = cur
	}
	if len(other.Aliases) > 0 && m.Aliases == nil {
		m.Aliases = make(map[string]string, len(other.Aliases))
	}
	for alias, target := range other.Aliases {
		m.Aliases[alias] = target
	}
}
