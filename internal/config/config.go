package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/trie"
)

// ErrUsage marks command line mistakes, as opposed to runtime failures.
var ErrUsage = errors.New("usage error")

// Config holds all configuration for the application
type Config struct {
	Input    string `mapstructure:"input"`
	Complete string `mapstructure:"complete"`
	SVG      bool   `mapstructure:"svg"`
	Prefix   string `mapstructure:"prefix"`
	Keep     bool   `mapstructure:"keep"`

	Render      RenderConfig `mapstructure:"render"`
	Pool        PoolConfig   `mapstructure:"pool"`
	InputPolicy PolicyConfig `mapstructure:"input_policy"`
	Log         LogConfig    `mapstructure:"log"`
	Server      ServerConfig `mapstructure:"server"`

	// Completion is set when --complete was given, even with an empty prefix.
	Completion bool `mapstructure:"-"`
}

// RenderConfig holds Graphviz related configuration
type RenderConfig struct {
	DOTFile string        `mapstructure:"dot_file"`
	Format  string        `mapstructure:"format"`
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PoolConfig holds node pool sizing
type PoolConfig struct {
	InitialCapacity int   `mapstructure:"initial_capacity"`
	MaxNodes        int   `mapstructure:"max_nodes"`
	MemoryLimit     int64 `mapstructure:"memory_limit"`
}

// PolicyConfig decides what to do with unusable input lines
type PolicyConfig struct {
	SkipEmpty   bool `mapstructure:"skip_empty"`
	SkipInvalid bool `mapstructure:"skip_invalid"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds query server configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"complete":         "complete",
	"svg":              "svg",
	"prefix":           "prefix",
	"keep":             "keep",
	"serve":            "server.addr",
	"dot-file":         "render.dot_file",
	"format":           "render.format",
	"dot-binary":       "render.binary",
	"render-timeout":   "render.timeout",
	"initial-capacity": "pool.initial_capacity",
	"max-nodes":        "pool.max_nodes",
	"memory-limit":     "pool.memory_limit",
	"skip-invalid":     "input_policy.skip_invalid",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// NewFlagSet defines the command line flags.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.BoolP("keep", "k", false, "Keep the transient .DOT file.")
	fs.BoolP("help", "h", false, "Display this help message and exit.")
	fs.BoolP("svg", "s", false, "Generate a graph image (with optional prefix).")
	fs.StringP("complete", "c", "", "Suggest autocompletions for `PREFIX`.")
	fs.StringP("prefix", "p", "", "Restrict the graph to the subtree at `PREFIX`.")
	fs.String("serve", "", "Serve completions over HTTP on `ADDR`.")
	fs.String("config", "", "Path to a config `file`.")
	fs.String("dot-file", "graph.dot", "Path of the transient .DOT file.")
	fs.String("format", "svg", "Graphviz output format.")
	fs.String("dot-binary", "dot", "Graphviz binary to run.")
	fs.Duration("render-timeout", 30*time.Second, "Time limit for Graphviz.")
	fs.Int("initial-capacity", trie.DefaultInitialCapacity, "Nodes allocated up front.")
	fs.Int("max-nodes", trie.MaxNodes, "Maximum number of trie nodes.")
	fs.Int64("memory-limit", 0, "Maximum node pool size in bytes (0 = unlimited).")
	fs.Bool("skip-invalid", false, "Skip lines with non-printable-ASCII bytes instead of failing.")
	fs.String("log-level", "info", "Log level (debug, info, warn, error).")
	fs.String("log-format", "console", "Log format (console, json).")
	return fs
}

// LoadConfig loads configuration from file, environment variables and
// parsed command line flags, in increasing order of precedence.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("AUTOCOMPLETE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		switch flags.NArg() {
		case 0:
		case 1:
			v.Set("input", flags.Arg(0))
		default:
			return nil, fmt.Errorf("%w: expected at most one input file, got %d", ErrUsage, flags.NArg())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Completion = v.IsSet("complete")

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("prefix", "")
	v.SetDefault("svg", false)
	v.SetDefault("keep", false)

	// Graphviz defaults
	v.SetDefault("render.dot_file", "graph.dot")
	v.SetDefault("render.format", "svg")
	v.SetDefault("render.binary", "dot")
	v.SetDefault("render.timeout", "30s")

	// Pool defaults
	v.SetDefault("pool.initial_capacity", trie.DefaultInitialCapacity)
	v.SetDefault("pool.max_nodes", trie.MaxNodes)
	v.SetDefault("pool.memory_limit", 0)

	v.SetDefault("input_policy.skip_empty", true)
	v.SetDefault("input_policy.skip_invalid", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.addr", "")
}

// Serving reports whether the query server should run.
func (c *Config) Serving() bool {
	return c.Server.Addr != ""
}

// TrieOptions converts the pool settings into trie options.
func (c *Config) TrieOptions(logger zerolog.Logger) []trie.Option {
	return []trie.Option{
		trie.WithInitialCapacity(c.Pool.InitialCapacity),
		trie.WithMaxNodes(c.Pool.MaxNodes),
		trie.WithMemoryLimit(c.Pool.MemoryLimit),
		trie.WithLogger(logger),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	modes := 0
	for _, on := range []bool{c.Completion, c.SVG, c.Serving()} {
		if on {
			modes++
		}
	}
	switch {
	case modes == 0:
		return fmt.Errorf("%w: one of --svg, --complete or --serve is required", ErrUsage)
	case c.Completion && c.SVG:
		return fmt.Errorf("%w: -s/--svg and -c/--complete cannot be combined", ErrUsage)
	case modes > 1:
		return fmt.Errorf("%w: --serve cannot be combined with --svg or --complete", ErrUsage)
	}

	if !c.SVG {
		if c.Prefix != "" {
			return fmt.Errorf("%w: -p specified without -s", ErrUsage)
		}
		if c.Keep {
			return fmt.Errorf("%w: -k specified without -s", ErrUsage)
		}
	}

	if c.Pool.InitialCapacity < 1 {
		return fmt.Errorf("invalid pool initial capacity: %d", c.Pool.InitialCapacity)
	}
	if c.Pool.MaxNodes < 1 || c.Pool.MaxNodes > trie.MaxNodes {
		return fmt.Errorf("invalid pool max nodes: %d (must be between 1 and %d)", c.Pool.MaxNodes, trie.MaxNodes)
	}
	if c.Pool.MemoryLimit < 0 {
		return fmt.Errorf("invalid pool memory limit: %d", c.Pool.MemoryLimit)
	}

	if c.SVG {
		if c.Render.DOTFile == "" {
			return fmt.Errorf("render dot file cannot be empty")
		}
		if c.Render.Format == "" {
			return fmt.Errorf("render format cannot be empty")
		}
		if c.Render.Binary == "" {
			return fmt.Errorf("render binary cannot be empty")
		}
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}

	return nil
}
