// Package config loads the agent configuration: the ambient server/log
// sections plus the sectioned module layout that drives metric-address
// allocation. All configuration failures are fatal; there is no partial
// or degraded startup.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// DefaultPrefix is the agent-wide metric-name prefix used when the agent
// section does not override it.
const DefaultPrefix = "sys"

// Config aggregates everything startup needs.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    ZapLogConfig `yaml:"log" mapstructure:"log"`

	// Prefix is the agent-wide metric-name prefix (agent.prefix).
	Prefix string `mapstructure:"-"`
	// Modules are the enabled module descriptors, in list order.
	Modules []Descriptor `mapstructure:"-"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"required,gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"required,gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"required,gt=0"`
}

// ZapLogConfig configures the zap/rotatelogs sink.
type ZapLogConfig struct {
	Level    string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	Format   string `yaml:"format" mapstructure:"format" validate:"required,oneof=json console"`
	Path     string `yaml:"path" mapstructure:"path" validate:"required"`
	MaxAge   int    `yaml:"max_age" mapstructure:"max_age" validate:"gte=0"`
	MaxSize  int    `yaml:"max_size" mapstructure:"max_size" validate:"gt=0"`
	Compress bool   `yaml:"compress" mapstructure:"compress"`
}

// NewDefaultConfig returns a Config with every ambient field populated,
// so a minimal file only has to declare the agent and module sections.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:9750",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: ZapLogConfig{
			Level:    "info",
			Format:   "json",
			Path:     "./logs",
			MaxAge:   7,
			MaxSize:  100,
			Compress: true,
		},
		Prefix: DefaultPrefix,
	}
}

// LoadWithCli layers flags, the config file and environment variables,
// then parses the module layout. The file named by --config must exist.
func LoadWithCli(cmd *cobra.Command) (*Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	return load(configFile, cmd)
}

// Load reads a configuration file without CLI layering.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if path == "" {
		return nil, fmt.Errorf("%w: no configuration file given", ErrConfigMissing)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	decoderConfig := &mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	prefix, descs, err := parseModuleLayout(v)
	if err != nil {
		return nil, err
	}
	cfg.Prefix = prefix
	cfg.Modules = descs

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := valid.Struct(&c.Log); err != nil {
		return err
	}
	for i := range c.Modules {
		if err := valid.Struct(&c.Modules[i]); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the listen address actually resolves.
func (s *ServerConfig) Validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	if _, err := net.ResolveTCPAddr("tcp", s.Addr); err != nil {
		return fmt.Errorf("server.addr invalid (expected :port or ip:port), got %s: %w", s.Addr, err)
	}
	return nil
}
