// Package resources assembles the registry from the resource packages and the manifest.
package resources

import (
	"fmt"
	"log/slog"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/bootstrap"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/keyme"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/nurse"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/openaq"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/pollin"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/sentimenter"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/todos"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/whatsmybill"
)

const (
	logPrefix = "resources:catalog"

	defaultVersion = "1.0.0"
)

// Deps are the collaborators resources are built over. A nil store skips the resources that
// need it.
type Deps struct {
	Todos        todos.Store
	HealthChecks nurse.Store
	Blob         blob.Store
	// Fetcher defaults to blob.NewFetcher(Blob).
	Fetcher     pollin.Fetcher
	Costs       whatsmybill.CostSource
	BillWebhook string
}

type builder struct {
	name string
	// needs names the missing dependency, or "" when the resource can be built.
	needs func(Deps) string
	build func(Deps, *bootstrap.Manifest, string) (*registry.Resource, error)
}

var builders = []builder{
	{
		name:  todos.Name,
		needs: func(d Deps) string { return missing(d.Todos == nil, "a database") },
		build: func(d Deps, _ *bootstrap.Manifest, v string) (*registry.Resource, error) {
			return todos.New(d.Todos, v)
		},
	},
	{
		name:  nurse.Name,
		needs: func(d Deps) string { return missing(d.HealthChecks == nil, "a database") },
		build: func(d Deps, _ *bootstrap.Manifest, v string) (*registry.Resource, error) {
			return nurse.New(d.HealthChecks, v)
		},
	},
	{
		name:  keyme.Name,
		build: func(_ Deps, _ *bootstrap.Manifest, v string) (*registry.Resource, error) { return keyme.New(v) },
	},
	{
		name:  sentimenter.Name,
		build: func(_ Deps, _ *bootstrap.Manifest, v string) (*registry.Resource, error) { return sentimenter.New(v) },
	},
	{
		name:  pollin.Name,
		needs: func(d Deps) string { return missing(d.Blob == nil, "blob storage") },
		build: func(d Deps, m *bootstrap.Manifest, v string) (*registry.Resource, error) {
			return pollin.New(pollin.Config{
				Store:      d.Blob,
				Fetcher:    d.Fetcher,
				ExtractURI: m.Setting(pollin.Name, "extract_uri", ""),
				CleanURI:   m.Setting(pollin.Name, "clean_uri", ""),
				SourceURL:  m.Setting(pollin.Name, "source_url", ""),
			}, v)
		},
	},
	{
		name:  openaq.Name,
		needs: func(d Deps) string { return missing(d.Blob == nil, "blob storage") },
		build: func(d Deps, m *bootstrap.Manifest, v string) (*registry.Resource, error) {
			return openaq.New(openaq.Config{
				Store:        d.Blob,
				Fetcher:      d.Fetcher,
				APIURL:       m.Setting(openaq.Name, "api_url", ""),
				ExtractURI:   m.Setting(openaq.Name, "extract_uri", ""),
				TransformURI: m.Setting(openaq.Name, "transform_uri", ""),
				Country:      m.Setting(openaq.Name, "country", "US"),
			}, v)
		},
	},
	{
		name: whatsmybill.Name,
		build: func(d Deps, m *bootstrap.Manifest, v string) (*registry.Resource, error) {
			return whatsmybill.New(whatsmybill.Config{
				Costs:      d.Costs,
				WebhookURL: m.Setting(whatsmybill.Name, "webhook_url", d.BillWebhook),
			}, v)
		},
	},
}

func missing(cond bool, what string) string {
	if cond {
		return what
	}
	return ""
}

// Names returns every resource the catalog knows, registered or not.
func Names() []string {
	out := make([]string, 0, len(builders))
	for _, b := range builders {
		out = append(out, b.name)
	}
	return out
}

// Build registers every enabled resource whose dependencies are present, then the
// manifest aliases that point at a registered resource.
func Build(deps Deps, m *bootstrap.Manifest) (*registry.Registry, error) {
	if deps.Fetcher == nil && deps.Blob != nil {
		deps.Fetcher = blob.NewFetcher(deps.Blob)
	}

	reg := registry.NewRegistry()
	built := make(map[string]*registry.Resource, len(builders))
	for _, b := range builders {
		if !m.Enabled(b.name) {
			slog.Info(fmt.Sprintf("%s - %s disabled by manifest", logPrefix, b.name))
			continue
		}
		if b.needs != nil {
			if need := b.needs(deps); need != "" {
				slog.Warn(fmt.Sprintf("%s - skipping %s: needs %s", logPrefix, b.name, need))
				continue
			}
		}
		res, err := b.build(deps, m, m.Version(b.name, defaultVersion))
		if err != nil {
			return nil, fmt.Errorf("%s - failed to build %s: %w", logPrefix, b.name, err)
		}
		if err := reg.Register(b.name, res); err != nil {
			return nil, err
		}
		built[b.name] = res
	}

	for _, alias := range m.AliasNames() {
		target := m.Aliases[alias]
		res, ok := built[target]
		if !ok {
			slog.Warn(fmt.Sprintf("%s - alias %s points at unregistered resource %s", logPrefix, alias, target))
			continue
		}
		if err := reg.Register(alias, res); err != nil {
			return nil, err
		}
	}

	slog.Info(fmt.Sprintf("%s - registered %d resources", logPrefix, len(reg.Resources())))
	return reg, nil
}
