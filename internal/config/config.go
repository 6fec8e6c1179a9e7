package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ramstk/reliability-allocator/pkg/allocator"
	"github.com/ramstk/reliability-allocator/pkg/apportion"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys,
// e.g. ALLOCATOR_ALLOCATION_MAXDEPTH.
const EnvPrefix = "ALLOCATOR"

// Flag names registered by BindFlags.
const (
	FlagTolerance      = "tolerance"
	FlagMaxDepth       = "max-depth"
	FlagDefaultMethod  = "default-method"
	FlagARINCAggregate = "arinc-aggregate"
	FlagVerbosity      = "verbosity"
	FlagDevelopment    = "development"
)

// flagKeys maps flags to the configuration keys they override.
var flagKeys = map[string]string{
	FlagTolerance:      "allocation.tolerance",
	FlagMaxDepth:       "allocation.maxDepth",
	FlagDefaultMethod:  "allocation.defaultMethod",
	FlagARINCAggregate: "allocation.arincUseAggregate",
	FlagVerbosity:      "logging.level",
	FlagDevelopment:    "logging.development",
}

// Config is the configuration of an allocation run.
type Config struct {
	Allocation AllocationConfig `yaml:"allocation" mapstructure:"allocation"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// AllocationConfig configures the allocator.
type AllocationConfig struct {
	// Tolerance is the relative tolerance of the check that children's allocations add
	// up to the parent goal.
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`

	// MaxDepth limits how many levels a trickle-down may descend.
	MaxDepth int `yaml:"maxDepth" mapstructure:"maxDepth"`

	// DefaultMethod is applied to nodes that get a goal without a method.
	DefaultMethod string `yaml:"defaultMethod" mapstructure:"defaultMethod"`

	// ARINCUseAggregate weights ARINC by rolled-up current hazard rates.
	ARINCUseAggregate bool `yaml:"arincUseAggregate" mapstructure:"arincUseAggregate"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is the logr verbosity: 0 info, 1 debug, 2 trace.
	Level       int  `yaml:"level" mapstructure:"level"`
	Development bool `yaml:"development" mapstructure:"development"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Allocation: AllocationConfig{
			Tolerance:     allocator.DefaultTolerance,
			MaxDepth:      allocator.DefaultMaxDepth,
			DefaultMethod: strings.ToLower(allocator.DefaultMethod.String()),
		},
	}
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if !(c.Allocation.Tolerance > 0) || math.IsInf(c.Allocation.Tolerance, 0) {
		return fmt.Errorf("allocation.tolerance must be > 0, got %g", c.Allocation.Tolerance)
	}
	if c.Allocation.MaxDepth < 1 {
		return fmt.Errorf("allocation.maxDepth must be >= 1, got %d", c.Allocation.MaxDepth)
	}
	if _, err := apportion.ParseMethod(c.Allocation.DefaultMethod); err != nil {
		return fmt.Errorf("allocation.defaultMethod: %w", err)
	}
	if c.Logging.Level < 0 {
		return fmt.Errorf("logging.level must be >= 0, got %d", c.Logging.Level)
	}
	return nil
}

// BindFlags registers the flags that override configuration keys.
func BindFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.Float64(FlagTolerance, d.Allocation.Tolerance, "relative tolerance of the allocation consistency check")
	fs.Int(FlagMaxDepth, d.Allocation.MaxDepth, "maximum number of levels a trickle-down may descend")
	fs.String(FlagDefaultMethod, d.Allocation.DefaultMethod, "method for nodes given a goal without a method (equal, agree, arinc, foo)")
	fs.Bool(FlagARINCAggregate, d.Allocation.ARINCUseAggregate, "weight ARINC allocations by rolled-up current hazard rates")
	fs.IntP(FlagVerbosity, "v", d.Logging.Level, "log verbosity (0 info, 1 debug, 2 trace)")
	fs.Bool(FlagDevelopment, d.Logging.Development, "use development logging")
}

// Load builds the configuration from, in increasing precedence, the defaults, the YAML
// file at path, ALLOCATOR_* environment variables and the flags of fs that were set.
// path and fs are optional.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := checkFields(data); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("allocation.tolerance", d.Allocation.Tolerance)
	v.SetDefault("allocation.maxDepth", d.Allocation.MaxDepth)
	v.SetDefault("allocation.defaultMethod", d.Allocation.DefaultMethod)
	v.SetDefault("allocation.arincUseAggregate", d.Allocation.ARINCUseAggregate)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
}

// checkFields rejects config files with keys Config does not know about, which viper
// would otherwise ignore.
func checkFields(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Marshal renders c as YAML in the config file format.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// AllocatorConfig converts c into an allocator configuration.
func (c *Config) AllocatorConfig(logger logr.Logger, recorder allocator.Recorder) (*allocator.Config, error) {
	method, err := apportion.ParseMethod(c.Allocation.DefaultMethod)
	if err != nil {
		return nil, err
	}
	return &allocator.Config{
		Tolerance:         c.Allocation.Tolerance,
		MaxDepth:          c.Allocation.MaxDepth,
		DefaultMethod:     method,
		ARINCUseAggregate: c.Allocation.ARINCUseAggregate,
		Logger:            logger,
		Recorder:          recorder,
	}, nil
}
