package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/morph/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "morph.json"

	// DefaultPort is the default live server port.
	DefaultPort = 3000

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultLivePath is the websocket endpoint of the live server.
	DefaultLivePath = "/live"

	// DefaultHookTimeout is the default bound on asynchronous hooks.
	DefaultHookTimeout = "5s"

	// DefaultMaxEntries is the default capacity of each identity registry.
	DefaultMaxEntries = 1024

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "morph"

	// DefaultArchivePrefix is the default object key prefix for snapshots.
	DefaultArchivePrefix = "snapshots/"
)

// configFileNames are probed by Load, in order.
var configFileNames = []string{ConfigFileName, "morph.yaml", "morph.yml"}

// Config represents the complete morph configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Markers names the attributes read and written by the runtime.
	Markers MarkersConfig `json:"markers,omitempty" yaml:"markers,omitempty"`

	// Limits bounds the identity registries.
	Limits LimitsConfig `json:"limits,omitempty" yaml:"limits,omitempty"`

	// Hooks configures lifecycle hook execution.
	Hooks HooksConfig `json:"hooks,omitempty" yaml:"hooks,omitempty"`

	// Server configures the live server.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing configures render spans.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Archive configures the S3 snapshot archive.
	Archive ArchiveConfig `json:"archive,omitempty" yaml:"archive,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MarkersConfig contains marker attribute names.
type MarkersConfig struct {
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Boundary   string `json:"boundary,omitempty" yaml:"boundary,omitempty"`
	Ref        string `json:"ref,omitempty" yaml:"ref,omitempty"`
	Definition string `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// LimitsConfig contains registry capacities. Zero means unbounded.
type LimitsConfig struct {
	MaxSingletons int `json:"maxSingletons,omitempty" yaml:"maxSingletons,omitempty"`
	MaxChildren   int `json:"maxChildren,omitempty" yaml:"maxChildren,omitempty"`
}

// HooksConfig contains hook runner settings.
type HooksConfig struct {
	// Timeout bounds continuation and promise hooks (e.g. "5s"). "0" disables
	// the bound.
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// Path is the websocket endpoint.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// TracerName overrides the instrumentation name of render spans.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// ArchiveConfig contains S3 archive settings.
type ArchiveConfig struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (MinIO, R2, LocalStack).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// PathStyle forces path-style addressing.
	PathStyle bool `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Markers: MarkersConfig{
			Key:        "data-key",
			Boundary:   "data-component-root",
			Ref:        "data-ref",
			Definition: "data-component",
		},
		Limits: LimitsConfig{
			MaxSingletons: DefaultMaxEntries,
			MaxChildren:   DefaultMaxEntries,
		},
		Hooks: HooksConfig{
			Timeout: DefaultHookTimeout,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
			Path: DefaultLivePath,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Archive: ArchiveConfig{
			Prefix: DefaultArchivePrefix,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// morph.json, morph.yaml and morph.yml, in that order.
func Load(dir string) (*Config, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E121").
		WithDetail("No morph.json, morph.yaml or morph.yml found in " + dir)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	format := strings.ToLower(filepath.Ext(path))
	if format != ".json" && format != ".yaml" && format != ".yml" {
		return nil, errors.New("E123").WithDetail("Unsupported file " + path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if format == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + strings.TrimPrefix(format, "."))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML when the
// extension asks for it and as JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	// Markers
	if c.Markers.Key == "" {
		c.Markers.Key = d.Markers.Key
	}
	if c.Markers.Boundary == "" {
		c.Markers.Boundary = d.Markers.Boundary
	}
	if c.Markers.Ref == "" {
		c.Markers.Ref = d.Markers.Ref
	}
	if c.Markers.Definition == "" {
		c.Markers.Definition = d.Markers.Definition
	}

	// Hooks
	if c.Hooks.Timeout == "" {
		c.Hooks.Timeout = DefaultHookTimeout
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultLivePath
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	// Archive
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = DefaultArchivePrefix
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("server.port must be between 0 and 65535")
	}
	if c.Limits.MaxSingletons < 0 || c.Limits.MaxChildren < 0 {
		return errors.New("E122").
			WithDetail("limits must not be negative")
	}
	if _, err := c.HookTimeout(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return errors.New("E122").
			WithDetailf("server.path %q must start with /", c.Server.Path)
	}
	seen := make(map[string]string, 4)
	for field, v := range map[string]string{
		"key":        c.Markers.Key,
		"boundary":   c.Markers.Boundary,
		"ref":        c.Markers.Ref,
		"definition": c.Markers.Definition,
	} {
		if other, dup := seen[v]; dup {
			return errors.New("E122").
				WithDetailf("markers.%s and markers.%s both use %q", field, other, v)
		}
		seen[v] = field
	}
	return nil
}

// HookTimeout parses Hooks.Timeout.
func (c *Config) HookTimeout() (time.Duration, error) {
	if c.Hooks.Timeout == "" || c.Hooks.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Hooks.Timeout)
	if err != nil || d < 0 {
		return 0, errors.New("E122").
			WithDetailf("hooks.timeout %q is not a valid duration", c.Hooks.Timeout)
	}
	return d, nil
}

// ServerAddress returns the listen address of the live server.
func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range configFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a morph config, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E121").
				WithDetail("No morph config found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent that has one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
