package resources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/bootstrap"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/db"
)

type nopTodos struct{}

func (nopTodos) Create(context.Context, db.Todo) (int64, error)  { return 1, nil }
func (nopTodos) List(context.Context) ([]db.Todo, error)         { return nil, nil }
func (nopTodos) ToggleDone(context.Context, int64) (bool, error) { return true, nil }
func (nopTodos) Delete(context.Context, int64) error             { return nil }

func memStore() blob.Store {
	r := blob.NewRouter()
	r.Handle("mem", blob.NewMemBackend())
	return r
}

func TestBuild_SkipsResourcesWithoutDeps(t *testing.T) {
	reg, err := Build(Deps{}, bootstrap.DefaultManifest("local"))
	require.NoError(t, err)

	assert.Equal(t, []string{"keyme", "sentimenter", "whatsmybill"}, reg.Resources())
}

func TestBuild_AllWithAliases(t *testing.T) {
	reg, err := Build(Deps{Todos: nopTodos{}, HealthChecks: nil, Blob: memStore()}, bootstrap.DefaultManifest("local"))
	require.NoError(t, err)

	assert.Equal(t, []string{"keyme", "openaq", "pollin", "sentimenter", "todos", "whatsmybill", "zacks_todos"}, reg.Resources())

	aliased, err := reg.Resolve("zacks_todos")
	require.NoError(t, err)
	direct, err := reg.Resolve("todos")
	require.NoError(t, err)
	assert.Same(t, direct, aliased)
}

func TestBuild_ManifestVersionsAndSettings(t *testing.T) {
	off := false
	m := bootstrap.DefaultManifest("local")
	m.Merge(&bootstrap.Manifest{
		Resources: map[string]bootstrap.ResourceConfig{
			"keyme":  {Version: "2.1.0"},
			"pollin": {Settings: map[string]string{"clean_uri": "mem://elsewhere/clean"}},
			"todos":  {Enabled: &off},
		},
	})

	reg, err := Build(Deps{Todos: nopTodos{}, Blob: memStore()}, m)
	require.NoError(t, err)

	_, err = reg.Resolve("todos")
	assert.Error(t, err)
	_, err = reg.Resolve("zacks_todos")
	assert.Error(t, err, "alias of a disabled resource is not registered")

	keyme, err := reg.Resolve("keyme")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", keyme.Version)

	_, fetch, err := reg.ResolveAction("pollin", "fetch_data")
	require.NoError(t, err)
	p, ok := fetch.Param("base_uri")
	require.True(t, ok)
	assert.Equal(t, "mem://elsewhere/clean", p.Default)
}

func TestNames(t *testing.T) {
	assert.Len(t, Names(), 7)
}
