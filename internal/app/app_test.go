package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/internal/config"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/dispatcher"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SNOWBIRD_MANIFEST_FILE", "")
	dir := t.TempDir()
	return &config.Config{
		DatabaseURL:    "sqlite://" + filepath.Join(dir, "snowbird.sqlite"),
		RunMigrations:  true,
		RequestTimeout: 5 * time.Second,
		CloudProvider:  "local",
		BlobLocalRoot:  filepath.Join(dir, "blobs"),
		LogLevel:       "error",
	}
}

func TestNew_RegistersResources(t *testing.T) {
	rt, err := New(context.Background(), testConfig(t))
	require.NoError(t, err, "app:app_test - New")
	defer rt.Close()

	assert.Equal(t,
		[]string{"keyme", "nurse", "openaq", "pollin", "sentimenter", "todos", "whatsmybill", "zacks_todos"},
		rt.Dispatcher.Registry().Resources())
	assert.Equal(t, []string{"file", "mem"}, rt.Blob.Schemes())
	assert.Nil(t, rt.Conn)
}

func TestNew_TodosRoundTrip(t *testing.T) {
	var invoked []string
	pub := events.NewCallbackPublisher(func(_ context.Context, ev *events.InvocationEvent) error {
		invoked = append(invoked, ev.Resource+"."+ev.Action)
		return nil
	})

	rt, err := New(context.Background(), testConfig(t), WithPublisher(pub))
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	resp := rt.Dispatcher.Dispatch(ctx, &dispatcher.Request{
		Resource: "zacks_todos",
		Action:   "create",
		Params:   map[string]interface{}{"todo": "write tests", "author": "zack", "category": "work"},
	})
	require.True(t, resp.Ok, "app:app_test - create failed: %+v", resp.Error)

	resp = rt.Dispatcher.Dispatch(ctx, &dispatcher.Request{Resource: "todos", Action: "read", Params: map[string]interface{}{}})
	require.True(t, resp.Ok)
	assert.Contains(t, invoked, "todos.read")
}

func TestNew_BlobOverride(t *testing.T) {
	mem := blob.NewMemBackend()
	rt, err := New(context.Background(), testConfig(t), WithBlobBackend("s3", mem))
	require.NoError(t, err)
	defer rt.Close()

	require.NoError(t, rt.Blob.Write(context.Background(), "s3://bucket/a.csv", []byte("x")))
	data, err := mem.Get(context.Background(), "bucket", "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestNew_BadDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = "mysql://nope"
	rt, err := New(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, rt)
}

func TestNew_StartupFailuresReturnErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *config.Config)
	}{
		{"manifest", func(t *testing.T, cfg *config.Config) {
			p := filepath.Join(t.TempDir(), "manifest.yaml")
			require.NoError(t, os.WriteFile(p, []byte("resources: [unclosed"), 0o644))
			cfg.ManifestFile = p
		}},
		{"migration", func(t *testing.T, cfg *config.Config) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("CREATE TABLEE nope"), 0o644))
			cfg.MigrationPath = dir
		}},
		{"migration dir", func(t *testing.T, cfg *config.Config) {
			cfg.MigrationPath = filepath.Join(t.TempDir(), "missing")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.setup(t, cfg)

			var rt *Runtime
			var err error
			require.NotPanics(t, func() {
				rt, err = New(context.Background(), cfg)
			}, "app:app_test - New must not panic on %s failure", tt.name)
			assert.Error(t, err)
			assert.Nil(t, rt)
		})
	}
}
