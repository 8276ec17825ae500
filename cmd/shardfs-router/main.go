// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/shardfs/lib/config"
	"github.com/bureau-foundation/shardfs/lib/logging"
	"github.com/bureau-foundation/shardfs/lib/metrics"
	"github.com/bureau-foundation/shardfs/lib/process"
	"github.com/bureau-foundation/shardfs/lib/router"
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/version"
)

func main() {
	process.Exit(run(os.Args[1:]))
}

type options struct {
	configPath         string
	listen             string
	root               string
	metricsListen      string
	logLevel           string
	strictRemoteDelete bool
	showVersion        bool
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	var opts options
	flags := pflag.NewFlagSet("shardfs-router", pflag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "path to the shardfs YAML config (default: $"+config.EnvironmentVariable+")")
	flags.StringVar(&opts.listen, "listen", "", "TCP address to serve clients on (overrides router.listen)")
	flags.StringVar(&opts.root, "root", "", "router store directory (overrides router.root)")
	flags.StringVar(&opts.metricsListen, "metrics-listen", "", "HTTP address for /metrics (overrides metrics.listen)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flags.BoolVar(&opts.strictRemoteDelete, "strict-remote-delete", false, "report storage node delete failures to clients")
	flags.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	return &opts, flags, nil
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(opts *options, flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flags.Changed("listen") {
		cfg.Router.Listen = opts.listen
	}
	if flags.Changed("root") {
		cfg.Router.Root = opts.root
	}
	if flags.Changed("metrics-listen") {
		cfg.Metrics.Listen = opts.metricsListen
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("strict-remote-delete") {
		cfg.Router.StrictRemoteDelete = opts.strictRemoteDelete
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(args []string) error {
	opts, flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Println(version.Banner("shardfs-router"))
		return nil
	}

	cfg, err := loadConfig(opts, flags)
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths("router"); err != nil {
		return err
	}
	compression, err := cfg.Compression()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.LogOptions())
	if err != nil {
		return err
	}
	defer logCloser.Close()

	instruments := metrics.New("router")
	r, err := router.New(router.Config{
		Root:               cfg.Router.Root,
		Nodes:              cfg.Router.Nodes.Addresses(),
		DialTimeout:        cfg.Router.DialTimeout.Std(),
		ForwardTimeout:     cfg.Router.ForwardTimeout.Std(),
		StrictRemoteDelete: cfg.Router.StrictRemoteDelete,
		Compression:        compression,
		TempDir:            cfg.Archive.TempDir,
	}, logger, instruments)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("router starting",
		"version", version.Info(),
		"listen", cfg.Router.Listen,
		"root", r.Tree().Root(),
		"pdf_node", cfg.Router.Nodes.PDF,
		"text_node", cfg.Router.Nodes.Text,
		"zip_node", cfg.Router.Nodes.Zip,
		"strict_remote_delete", cfg.Router.StrictRemoteDelete,
		"archive_compression", compression.String(),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.New(r, logger, server.Options{
			ReadTimeout:  cfg.Router.ReadTimeout.Std(),
			WriteTimeout: cfg.Router.ReadTimeout.Std(),
			Metrics:      instruments,
		}).ListenAndServe(ctx, cfg.Router.Listen)
	})
	group.Go(func() error {
		return instruments.Serve(ctx, cfg.Metrics.Listen, logger)
	})

	err = group.Wait()
	logger.Info("router stopped", "error", err)
	return err
}
