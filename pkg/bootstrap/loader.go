package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const logPrefix = "bootstrap:loader"

// Blob locations per cloud provider.
var providerBuckets = map[string]string{
	"aws":   "s3://snowbird-assets",
	"gcp":   "gs://snowbird-data",
	"local": "file://snowbird-data",
}

// LoadManifest loads the resource manifest for provider. It tries paths in order: first
// any paths passed in, then SNOWBIRD_MANIFEST_FILE, then config/manifest.yaml and
// manifest.yaml. The file found is merged over DefaultManifest(provider); with no file the
// defaults are returned. JSON manifests parse as YAML.
func LoadManifest(provider string, paths ...string) (*Manifest, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("SNOWBIRD_MANIFEST_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/manifest.yaml", "manifest.yaml")

	m := DefaultManifest(provider)
	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var loaded Manifest
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("%s - failed to parse manifest %s: %w", logPrefix, p, err)
		}
		if loaded.Provider != "" && loaded.Provider != provider {
			m = DefaultManifest(loaded.Provider)
		}
		m.Merge(&loaded)

		slog.Info(fmt.Sprintf("%s - loaded manifest from %s", logPrefix, p))
		return m, nil
	}

	slog.Info(fmt.Sprintf("%s - using default manifest for provider %s", logPrefix, m.Provider))
	return m, nil
}

// DefaultManifest returns the built-in manifest. provider picks the blob bucket (aws, gcp
// or local); anything else falls back to aws.
func DefaultManifest(provider string) *Manifest {
	bucket, ok := providerBuckets[provider]
	if !ok {
		provider = "aws"
		bucket = providerBuckets[provider]
	}

	return &Manifest{
		Name:     "snowbird",
		Provider: provider,
		Resources: map[string]ResourceConfig{
			"pollin": {
				Version: "1.0.0",
				Settings: map[string]string{
					"extract_uri": bucket + "/pollin/raw",
					"clean_uri":   bucket + "/pollin/clean",
					"source_url":  "https://projects.fivethirtyeight.com/polls-page/president_polls.csv",
				},
			},
			"openaq": {
				Version: "1.0.0",
				Settings: map[string]string{
					"extract_uri":   bucket + "/openaq/raw",
					"transform_uri": bucket + "/openaq/clean",
					"api_url":       "https://api.openaq.org/v1/measurements",
					"country":       "US",
				},
			},
		},
		Aliases: map[string]string{
			"zacks_todos": "todos",
		},
	}
}
