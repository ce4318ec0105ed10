// Package main is the entrypoint for the snowbird server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/zack-klein/api.zacharyjklein.com/internal/app"
	"github.com/zack-klein/api.zacharyjklein.com/internal/config"
	"github.com/zack-klein/api.zacharyjklein.com/internal/server"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/db"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/event"
)

const usage = `Usage: snowbird [command]
       snowbird serve              Start snowbird (HTTP API, plus NATS when COMMS_ENABLED).
       snowbird migrate up         Run database migrations.
       snowbird migrate status     Show migration status.
       snowbird ensure-db          Create the DATABASE_URL database if missing.
       snowbird clear              Delete all todos and health checks; schema is preserved.
       snowbird event [file]       Handle one event envelope from file (or stdin) and print the response.
       snowbird resources          Print every resource, action and parameter as JSON.

Commands:
  serve           (default) Start the server.
  migrate up      Run database migrations only.
  migrate status  Show applied and pending migrations.
  ensure-db       Create the postgres database named in DATABASE_URL; sqlite files are created on open.
  clear           Empty the todos and health_checks tables.
  event [file]    Replay an event envelope, e.g. {"body": "{\"resource\": \"keyme\", ...}"}.
  resources       Describe the registry.

Environment: DATABASE_URL (default sqlite://sample_db.sqlite), MIGRATION_PATH, HTTP_ADDR / HTTP_PORT,
COMMS_ENABLED, COMMS_URL, CLOUD_SERVICE_PROVIDER, SNOWBIRD_MANIFEST_FILE, WHATS_MY_BILL_WEBHOOK. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("snowbird migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("snowbird migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(os.Stdout); err != nil {
				log.Fatalf("snowbird migrate status: %v", err)
			}
		default:
			log.Fatalf("snowbird migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("snowbird clear: %v", err)
		}
		return
	case "ensure-db":
		if err := runEnsureDB(os.Stdout); err != nil {
			log.Fatalf("snowbird ensure-db: %v", err)
		}
		return
	case "event":
		in := io.Reader(os.Stdin)
		if len(args) > 1 && args[1] != "" && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				log.Fatalf("snowbird event: %v", err)
			}
			defer f.Close()
			in = f
		}
		if err := runEvent(in, os.Stdout); err != nil {
			log.Fatalf("snowbird event: %v", err)
		}
		return
	case "resources":
		if err := runResources(os.Stdout); err != nil {
			log.Fatalf("snowbird resources: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("snowbird: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	// one-shot commands log warnings only, to stderr, so stdout stays parseable
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	return cfg, nil
}

func openDB(ctx context.Context) (*config.Config, *db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, d, nil
}

func runMigrateUp() error {
	ctx := context.Background()
	cfg, d, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	migrations, err := d.Migrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := d.RunMigrations(ctx, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus(w io.Writer) error {
	ctx := context.Background()
	cfg, d, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	migrations, err := d.Migrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	status, err := d.Status(ctx, migrations)
	if err != nil {
		return err
	}
	for _, name := range status.Applied {
		fmt.Fprintf(w, "applied  %s\n", name)
	}
	for _, name := range status.Pending {
		fmt.Fprintf(w, "pending  %s\n", name)
	}
	return nil
}

func runClear() error {
	ctx := context.Background()
	_, d, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Clear(ctx); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}
	return nil
}

func runEnsureDB(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), cfg.DatabaseURL); err != nil {
		return err
	}
	fmt.Fprintln(w, "Database is ready.")
	return nil
}

func withRuntime(fn func(context.Context, *app.Runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func runEvent(in io.Reader, w io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}
	return withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		resp := event.NewHandler(rt.Dispatcher).HandleRaw(ctx, data)
		return writeJSON(w, resp)
	})
}

func runResources(w io.Writer) error {
	return withRuntime(func(_ context.Context, rt *app.Runtime) error {
		return writeJSON(w, rt.Dispatcher.Registry().Describe())
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
