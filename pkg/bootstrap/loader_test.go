package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

const loaderTestPrefix = "bootstrap:loader_test"

func TestDefaultManifest_Providers(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"aws", "s3://snowbird-assets/pollin/raw"},
		{"gcp", "gs://snowbird-data/pollin/raw"},
		{"local", "file://snowbird-data/pollin/raw"},
		{"", "s3://snowbird-assets/pollin/raw"},
	}
	for _, tt := range tests {
		m := DefaultManifest(tt.provider)
		if got := m.Setting("pollin", "extract_uri", ""); got != tt.want {
			t.Errorf("%s - provider %q extract_uri = %q, want %q", loaderTestPrefix, tt.provider, got, tt.want)
		}
	}
}

func TestManifest_NilSafe(t *testing.T) {
	var m *Manifest
	if !m.Enabled("anything") {
		t.Errorf("%s - nil manifest should enable everything", loaderTestPrefix)
	}
	if got := m.Setting("x", "y", "fb"); got != "fb" {
		t.Errorf("%s - Setting = %q, want fallback", loaderTestPrefix, got)
	}
	if got := m.Version("x", "0.1.0"); got != "0.1.0" {
		t.Errorf("%s - Version = %q, want fallback", loaderTestPrefix, got)
	}
}

func TestLoadManifest_FileMergesOverDefaults(t *testing.T) {
	t.Setenv("SNOWBIRD_MANIFEST_FILE", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	content := `
name: test
resources:
  openaq:
    settings:
      country: GB
  whatsmybill:
    enabled: false
  keyme:
    version: 2.1.0
aliases:
  kw: keyme
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("%s - write: %v", loaderTestPrefix, err)
	}

	m, err := LoadManifest("gcp", path)
	if err != nil {
		t.Fatalf("%s - LoadManifest: %v", loaderTestPrefix, err)
	}
	if m.Name != "test" {
		t.Errorf("%s - name = %q", loaderTestPrefix, m.Name)
	}
	if got := m.Setting("openaq", "country", ""); got != "GB" {
		t.Errorf("%s - country = %q, want GB", loaderTestPrefix, got)
	}
	if got := m.Setting("openaq", "extract_uri", ""); got != "gs://snowbird-data/openaq/raw" {
		t.Errorf("%s - default setting lost in merge: %q", loaderTestPrefix, got)
	}
	if m.Enabled("whatsmybill") {
		t.Errorf("%s - whatsmybill should be disabled", loaderTestPrefix)
	}
	if !m.Enabled("todos") {
		t.Errorf("%s - todos should default to enabled", loaderTestPrefix)
	}
	if got := m.Version("keyme", ""); got != "2.1.0" {
		t.Errorf("%s - keyme version = %q", loaderTestPrefix, got)
	}
	names := m.AliasNames()
	if len(names) != 2 || names[0] != "kw" || names[1] != "zacks_todos" {
		t.Errorf("%s - aliases = %v", loaderTestPrefix, names)
	}
}

func TestLoadManifest_JSON(t *testing.T) {
	t.Setenv("SNOWBIRD_MANIFEST_FILE", "")
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(`{"provider": "local", "resources": {"nurse": {"enabled": false}}}`), 0o600); err != nil {
		t.Fatalf("%s - write: %v", loaderTestPrefix, err)
	}

	m, err := LoadManifest("aws", path)
	if err != nil {
		t.Fatalf("%s - LoadManifest: %v", loaderTestPrefix, err)
	}
	if m.Provider != "local" {
		t.Errorf("%s - provider = %q, want local", loaderTestPrefix, m.Provider)
	}
	if got := m.Setting("pollin", "clean_uri", ""); got != "file://snowbird-data/pollin/clean" {
		t.Errorf("%s - clean_uri = %q", loaderTestPrefix, got)
	}
	if m.Enabled("nurse") {
		t.Errorf("%s - nurse should be disabled", loaderTestPrefix)
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	t.Setenv("SNOWBIRD_MANIFEST_FILE", "")
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("resources: [unclosed"), 0o600); err != nil {
		t.Fatalf("%s - write: %v", loaderTestPrefix, err)
	}
	if _, err := LoadManifest("aws", path); err == nil {
		t.Errorf("%s - expected parse error", loaderTestPrefix)
	}
}

func TestLoadManifest_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte("name: from-env\n"), 0o600); err != nil {
		t.Fatalf("%s - write: %v", loaderTestPrefix, err)
	}
	t.Setenv("SNOWBIRD_MANIFEST_FILE", path)

	m, err := LoadManifest("aws")
	if err != nil {
		t.Fatalf("%s - LoadManifest: %v", loaderTestPrefix, err)
	}
	if m.Name != "from-env" {
		t.Errorf("%s - name = %q, want from-env", loaderTestPrefix, m.Name)
	}
}
