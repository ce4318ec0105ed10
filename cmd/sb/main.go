// Package main is the sb command line: sb <resource> <action> [<args>].
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zack-klein/api.zacharyjklein.com/internal/app"
	"github.com/zack-klein/api.zacharyjklein.com/internal/config"
	"github.com/zack-klein/api.zacharyjklein.com/internal/server"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/transport/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, "Error: "+err.Error())
		return cli.ExitExecution
	}
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		cfg.LogLevel = "warn"
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	shutdownTracing, err := server.SetupTracing(ctx, cfg.COMMSName, cfg.TraceStdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error: "+err.Error())
		return cli.ExitExecution
	}
	defer shutdownTracing(context.Background())

	rt, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error: "+err.Error())
		return cli.ExitExecution
	}
	defer rt.Close()

	return cli.New(rt.Dispatcher, stdout, stderr).Run(ctx, args)
}
