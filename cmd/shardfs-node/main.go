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
	"github.com/bureau-foundation/shardfs/lib/server"
	"github.com/bureau-foundation/shardfs/lib/storagenode"
	"github.com/bureau-foundation/shardfs/lib/version"
)

func main() {
	process.Exit(run(os.Args[1:]))
}

type options struct {
	configPath    string
	fileType      string
	listen        string
	root          string
	metricsListen string
	logLevel      string
	showVersion   bool
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	var opts options
	flags := pflag.NewFlagSet("shardfs-node", pflag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "path to the shardfs YAML config (default: $"+config.EnvironmentVariable+")")
	flags.StringVarP(&opts.fileType, "type", "t", "", "file type held by this node: pdf, text or zip (overrides node.type)")
	flags.StringVar(&opts.listen, "listen", "", "TCP address to serve the router on (overrides node.listen)")
	flags.StringVar(&opts.root, "root", "", "node store directory (overrides node.root)")
	flags.StringVar(&opts.metricsListen, "metrics-listen", "", "HTTP address for /metrics (overrides metrics.listen)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
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
	if flags.Changed("type") {
		cfg.Node.Type = opts.fileType
	}
	if flags.Changed("listen") {
		cfg.Node.Listen = opts.listen
	}
	if flags.Changed("root") {
		cfg.Node.Root = opts.root
	}
	if flags.Changed("metrics-listen") {
		cfg.Metrics.Listen = opts.metricsListen
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
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
		fmt.Println(version.Banner("shardfs-node"))
		return nil
	}

	cfg, err := loadConfig(opts, flags)
	if err != nil {
		return err
	}
	fileType, err := cfg.NodeType()
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths("node"); err != nil {
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

	instruments := metrics.New(fileType.Name())
	service, err := storagenode.New(storagenode.Config{
		Type:        fileType,
		Root:        cfg.NodeRoot(),
		Compression: compression,
		TempDir:     cfg.Archive.TempDir,
	}, logger, instruments)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listen := cfg.NodeListen()
	logger.Info("storage node starting",
		"version", version.Info(),
		"type", fileType.Name(),
		"listen", listen,
		"root", service.Tree().Root(),
		"archive_compression", compression.String(),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.New(service, logger, server.Options{
			ReadTimeout:  cfg.Node.ReadTimeout.Std(),
			WriteTimeout: cfg.Node.ReadTimeout.Std(),
			Metrics:      instruments,
		}).ListenAndServe(ctx, listen)
	})
	group.Go(func() error {
		return instruments.Serve(ctx, cfg.Metrics.Listen, logger)
	})

	err = group.Wait()
	logger.Info("storage node stopped", "error", err)
	return err
}
