// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/shardfs/lib/archive"
	"github.com/bureau-foundation/shardfs/lib/logging"
	"github.com/bureau-foundation/shardfs/lib/namespace"
)

// EnvironmentVariable names the config file when no --config flag is given.
const EnvironmentVariable = "SHARDFS_CONFIG"

// Config is the master configuration for shardfs.
type Config struct {
	// Root is the base directory that the default store roots live
	// under. Available to other paths as ${SHARDFS_ROOT}.
	Root string `yaml:"root"`

	// Router configures the client-facing router.
	Router RouterConfig `yaml:"router"`

	// Node configures one storage node process.
	Node NodeConfig `yaml:"node"`

	// Client configures the interactive client.
	Client ClientConfig `yaml:"client"`

	// Archive configures archive-by-type bundles on every store.
	Archive ArchiveConfig `yaml:"archive"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// RouterConfig configures the router.
type RouterConfig struct {
	// Listen is the TCP address clients connect to.
	// Default: :8080
	Listen string `yaml:"listen"`

	// Root is the router's own store, holding C sources and staged
	// uploads.
	// Default: ${SHARDFS_ROOT}/S1
	Root string `yaml:"root"`

	// Nodes maps each remote file type to its storage node address.
	Nodes NodesConfig `yaml:"nodes"`

	// StrictRemoteDelete reports a storage node's refusal to delete as
	// a failure. When false the router answers "File removed" whatever
	// the node replied.
	// Default: false
	StrictRemoteDelete bool `yaml:"strict_remote_delete"`

	// ReadTimeout bounds every read from a client connection.
	// Default: 30s
	ReadTimeout Duration `yaml:"read_timeout"`

	// DialTimeout bounds connecting to a storage node.
	// Default: 5s
	DialTimeout Duration `yaml:"dial_timeout"`

	// ForwardTimeout bounds each read from a storage node, including
	// the acknowledgement wait after a forwarded upload.
	// Default: 10s
	ForwardTimeout Duration `yaml:"forward_timeout"`
}

// NodesConfig holds the storage node addresses by type.
type NodesConfig struct {
	PDF  string `yaml:"pdf"`
	Text string `yaml:"text"`
	Zip  string `yaml:"zip"`
}

// Addresses returns the node addresses keyed by the type each holds.
func (n NodesConfig) Addresses() map[namespace.FileType]string {
	return map[namespace.FileType]string{
		namespace.PDF:  n.PDF,
		namespace.Text: n.Text,
		namespace.Zip:  n.Zip,
	}
}

// NodeConfig configures one storage node.
type NodeConfig struct {
	// Type is the file type this node holds: pdf, text or zip.
	// Default: pdf
	Type string `yaml:"type"`

	// Listen is the TCP address the router connects to. Empty selects
	// the default port of the node's type.
	Listen string `yaml:"listen"`

	// Root is the node's store. Empty selects the default root of the
	// node's type under ${SHARDFS_ROOT}.
	Root string `yaml:"root"`

	// ReadTimeout bounds every read while receiving an upload.
	// Default: 5s
	ReadTimeout Duration `yaml:"read_timeout"`
}

// ClientConfig configures the interactive client.
type ClientConfig struct {
	// Router is the router address.
	// Default: 127.0.0.1:8080
	Router string `yaml:"router"`

	// DownloadDir is where downloads and archives are saved.
	// Default: . (the working directory)
	DownloadDir string `yaml:"download_dir"`

	// DialTimeout bounds connecting to the router.
	// Default: 5s
	DialTimeout Duration `yaml:"dial_timeout"`

	// ReadTimeout bounds each read of a reply.
	// Default: 60s
	ReadTimeout Duration `yaml:"read_timeout"`
}

// ArchiveConfig configures archive bundles.
type ArchiveConfig struct {
	// Compression wraps bundles in none, gzip, zstd or lz4.
	// Default: none
	Compression string `yaml:"compression"`

	// TempDir is where bundles are spooled before sending. Empty uses
	// the system temporary directory.
	TempDir string `yaml:"temp_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`

	// File receives a rotated copy of the log when set.
	File string `yaml:"file"`

	// MaxSizeMB rotates File at this size.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files are kept.
	// Default: 5
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays drops rotated files older than this. Zero keeps all.
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Listen is the HTTP address serving /metrics. Empty disables it.
	Listen string `yaml:"listen"`
}

// Duration is a time.Duration written in YAML as a Go duration string
// ("5s", "1m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Root: "${HOME}",
		Router: RouterConfig{
			Listen: ":8080",
			Root:   "${SHARDFS_ROOT}/S1",
			Nodes: NodesConfig{
				PDF:  "127.0.0.1:8081",
				Text: "127.0.0.1:8082",
				Zip:  "127.0.0.1:8083",
			},
			ReadTimeout:    Duration(30 * time.Second),
			DialTimeout:    Duration(5 * time.Second),
			ForwardTimeout: Duration(10 * time.Second),
		},
		Node: NodeConfig{
			Type:        namespace.PDF.Name(),
			ReadTimeout: Duration(5 * time.Second),
		},
		Client: ClientConfig{
			Router:      "127.0.0.1:8080",
			DownloadDir: ".",
			DialTimeout: Duration(5 * time.Second),
			ReadTimeout: Duration(60 * time.Second),
		},
		Archive: ArchiveConfig{
			Compression: "none",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}

// Load loads configuration from the file named by SHARDFS_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your shardfs.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path over the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// Resolve loads the file named by flagPath, else the file named by
// SHARDFS_CONFIG, else returns the defaults.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return LoadFile(flagPath)
	}
	if os.Getenv(EnvironmentVariable) != "" {
		return Load()
	}
	cfg := Default()
	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Root = expandVars(c.Root, vars)
	vars["SHARDFS_ROOT"] = c.Root

	c.Router.Root = expandVars(c.Router.Root, vars)
	c.Node.Root = expandVars(c.Node.Root, vars)
	c.Client.DownloadDir = expandVars(c.Client.DownloadDir, vars)
	c.Archive.TempDir = expandVars(c.Archive.TempDir, vars)
	c.Log.File = expandVars(c.Log.File, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// LogOptions returns the logging options of the log section.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// Compression parses Archive.Compression.
func (c *Config) Compression() (archive.Compression, error) {
	compression, err := archive.ParseCompression(c.Archive.Compression)
	if err != nil {
		return archive.CompressionNone, fmt.Errorf("archive.compression: %w", err)
	}
	return compression, nil
}

// NodeType parses Node.Type.
func (c *Config) NodeType() (namespace.FileType, error) {
	fileType, err := namespace.ParseType(c.Node.Type)
	if err != nil {
		return 0, fmt.Errorf("node.type: %w", err)
	}
	if fileType == namespace.DefaultPolicy.LocalType {
		return 0, fmt.Errorf("node.type: %s files are stored by the router", fileType)
	}
	return fileType, nil
}

// nodeDefaults are the port and store directory of each node type.
var nodeDefaults = map[namespace.FileType]struct {
	port      int
	directory string
}{
	namespace.PDF:  {8081, "S2"},
	namespace.Text: {8082, "S3"},
	namespace.Zip:  {8083, "S4"},
}

// NodeListen returns Node.Listen, or the default address of the
// node's type.
func (c *Config) NodeListen() string {
	if c.Node.Listen != "" {
		return c.Node.Listen
	}
	fileType, err := c.NodeType()
	if err != nil {
		return ""
	}
	return ":" + strconv.Itoa(nodeDefaults[fileType].port)
}

// NodeRoot returns Node.Root, or the default store of the node's type.
func (c *Config) NodeRoot() string {
	if c.Node.Root != "" {
		return c.Node.Root
	}
	fileType, err := c.NodeType()
	if err != nil {
		return ""
	}
	return filepath.Join(c.Root, nodeDefaults[fileType].directory)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Router.Listen == "" {
		errs = append(errs, errors.New("router.listen is required"))
	}
	if c.Router.Root == "" {
		errs = append(errs, errors.New("router.root is required"))
	}
	for fileType, address := range c.Router.Nodes.Addresses() {
		if address == "" {
			errs = append(errs, fmt.Errorf("router.nodes.%s is required", fileType.Name()))
			continue
		}
		if _, _, err := net.SplitHostPort(address); err != nil {
			errs = append(errs, fmt.Errorf("router.nodes.%s: %w", fileType.Name(), err))
		}
	}
	if _, err := c.NodeType(); err != nil {
		errs = append(errs, err)
	}
	if c.Client.Router == "" {
		errs = append(errs, errors.New("client.router is required"))
	}

	for name, value := range map[string]Duration{
		"router.read_timeout":    c.Router.ReadTimeout,
		"router.dial_timeout":    c.Router.DialTimeout,
		"router.forward_timeout": c.Router.ForwardTimeout,
		"node.read_timeout":      c.Node.ReadTimeout,
		"client.dial_timeout":    c.Client.DialTimeout,
		"client.read_timeout":    c.Client.ReadTimeout,
	} {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if _, err := c.Compression(); err != nil {
		errs = append(errs, err)
	}
	levelValues := []string{"", "debug", "info", "warn", "error"}
	if !contains(levelValues, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levelValues[1:]))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the store root of the given role ("router" or
// "node") if it does not exist.
func (c *Config) EnsurePaths(role string) error {
	var path string
	switch role {
	case "router":
		path = c.Router.Root
	case "node":
		path = c.NodeRoot()
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if path == "" {
		return fmt.Errorf("%s root is not configured", role)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
