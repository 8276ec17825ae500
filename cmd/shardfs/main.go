// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/shardfs/lib/client"
	"github.com/bureau-foundation/shardfs/lib/config"
	"github.com/bureau-foundation/shardfs/lib/logging"
	"github.com/bureau-foundation/shardfs/lib/process"
	"github.com/bureau-foundation/shardfs/lib/version"
)

func main() {
	process.Exit(run(os.Args[1:]))
}

func run(args []string) error {
	var (
		configPath  string
		router      string
		downloadDir string
		noProgress  bool
		showVersion bool
	)
	flags := pflag.NewFlagSet("shardfs", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.StringVar(&configPath, "config", "", "path to the shardfs YAML config (default: $"+config.EnvironmentVariable+")")
	flags.StringVarP(&router, "router", "r", "", "router address (overrides client.router)")
	flags.StringVarP(&downloadDir, "download-dir", "d", "", "directory for downloads and archives (overrides client.download_dir)")
	flags.BoolVar(&noProgress, "no-progress", false, "never show transfer progress")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Println(version.Banner("shardfs"))
		return nil
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flags.Changed("router") {
		cfg.Client.Router = router
	}
	if flags.Changed("download-dir") {
		cfg.Client.DownloadDir = downloadDir
	}

	// The client logs only at debug level; keep stderr quiet otherwise.
	logOptions := cfg.LogOptions()
	if logOptions.Level == "" || logOptions.Level == "info" {
		logOptions.Level = "warn"
	}
	logger, logCloser, err := logging.New(logOptions)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var progress io.Writer
	if !noProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		progress = os.Stderr
	}
	c, err := client.New(client.Config{
		Router:      cfg.Client.Router,
		DialTimeout: cfg.Client.DialTimeout.Std(),
		ReadTimeout: cfg.Client.ReadTimeout.Std(),
		DownloadDir: cfg.Client.DownloadDir,
		Progress:    progress,
	}, logger)
	if err != nil {
		return err
	}
	s := &shell{client: c, out: os.Stdout}

	if flags.NArg() > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		_, err := s.execute(ctx, strings.Join(flags.Args(), " "))
		return err
	}
	return s.interact(os.Stdin, term.IsTerminal(int(os.Stdin.Fd())))
}

// interact reads command lines from in until exit or end of input.
// The banner and prompt are shown only when in is a terminal.
func (s *shell) interact(in io.Reader, interactive bool) error {
	if interactive {
		fmt.Fprintln(s.out, "shardfs client", version.Info())
		fmt.Fprintln(s.out, "Type 'help' for available commands")
	}
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(s.out, prompt)
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(s.out)
			}
			return scanner.Err()
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		quit, _ := s.execute(ctx, scanner.Text())
		stop()
		if quit {
			if interactive {
				fmt.Fprintln(s.out, "Exiting client...")
			}
			return nil
		}
	}
}
