package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/cli"
)

const mainTestPrefix = "cmd/sb:main_test"

func setEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "snowbird.sqlite"))
	t.Setenv("CLOUD_SERVICE_PROVIDER", "local")
	t.Setenv("BLOB_LOCAL_ROOT", filepath.Join(dir, "blobs"))
	t.Setenv("S3_ENABLED", "false")
	t.Setenv("COMMS_ENABLED", "false")
	t.Setenv("SNOWBIRD_MANIFEST_FILE", "")
}

func TestRun_Sentiment(t *testing.T) {
	setEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"sentimenter", "get_sentiment", "very good"}, &stdout, &stderr)
	if code != cli.ExitOK {
		t.Fatalf("%s - exit %d, stderr %s", mainTestPrefix, code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"sentiment": "Positive"`) {
		t.Errorf("%s - stdout = %s", mainTestPrefix, stdout.String())
	}
}

func TestRun_TodosLifecycle(t *testing.T) {
	setEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"zacks_todos", "create", "buy milk", "zack", "errands"}, &stdout, &stderr)
	if code != cli.ExitOK {
		t.Fatalf("%s - create exit %d, stderr %s", mainTestPrefix, code, stderr.String())
	}

	stdout.Reset()
	code = run(context.Background(), []string{"todos", "read"}, &stdout, &stderr)
	if code != cli.ExitOK || !strings.Contains(stdout.String(), "buy milk") {
		t.Errorf("%s - read exit %d, stdout %s", mainTestPrefix, code, stdout.String())
	}

	stderr.Reset()
	code = run(context.Background(), []string{"todos", "delete", "--id", "999"}, &stdout, &stderr)
	if code != cli.ExitExecution {
		t.Errorf("%s - delete of missing todo exit %d, want %d", mainTestPrefix, code, cli.ExitExecution)
	}
	if !strings.Contains(stderr.String(), "Error: ") {
		t.Errorf("%s - stderr = %q", mainTestPrefix, stderr.String())
	}
}

func TestRun_UnknownResource(t *testing.T) {
	setEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"nope", "x"}, &stdout, &stderr)
	if code != cli.ExitUsage {
		t.Errorf("%s - exit %d, want %d", mainTestPrefix, code, cli.ExitUsage)
	}
	if !strings.Contains(stderr.String(), "nope") {
		t.Errorf("%s - stderr = %q", mainTestPrefix, stderr.String())
	}
}
