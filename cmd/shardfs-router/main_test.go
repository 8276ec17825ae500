// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/shardfs/lib/config"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	configPath := filepath.Join(t.TempDir(), "shardfs.yaml")
	content := `
router:
  listen: ":9080"
  root: /srv/shardfs/S1
  strict_remote_delete: true
log:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, flags, err := parseFlags([]string{
		"--config", configPath,
		"--listen", "127.0.0.1:7000",
		"--strict-remote-delete=false",
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(opts, flags)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Router.Listen != "127.0.0.1:7000" {
		t.Errorf("Router.Listen = %q, want the flag value", cfg.Router.Listen)
	}
	if cfg.Router.Root != "/srv/shardfs/S1" {
		t.Errorf("Router.Root = %q, want the file value", cfg.Router.Root)
	}
	if cfg.Router.StrictRemoteDelete {
		t.Error("--strict-remote-delete=false did not override the file")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	opts, flags, err := parseFlags([]string{"--log-level", "loud"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(opts, flags); err == nil {
		t.Fatal("invalid log level accepted")
	}
}

func TestUnknownFlag(t *testing.T) {
	if _, _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Fatal("unknown flag accepted")
	}
}
