package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/zero-day-ai/lakelore/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. LAKELORE_NEO4J_PASSWORD
// for neo4j.password.
const EnvPrefix = "LAKELORE"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// newViper returns a viper instance carrying every default and reading
// LAKELORE_* environment overrides.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load loads configuration from the specified file path.
// Returns an error if the file doesn't exist or cannot be parsed.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	if path == "" {
		return nil, types.NewError(types.CONFIG_NOT_FOUND, "config file path is empty")
	}

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	return l.decode(v)
}

// LoadWithDefaults loads configuration from the specified file path.
// If the path is empty or the file doesn't exist, the defaults are used,
// still subject to environment overrides.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return l.Load(path)
		} else if !os.IsNotExist(err) {
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to stat config file", err)
		}
	}

	cfg, err := l.decode(newViper())
	if err != nil {
		return nil, fmt.Errorf("default configuration: %w", err)
	}
	return cfg, nil
}

func (l *viperConfigLoader) decode(v *viper.Viper) (*Config, error) {
	interpolateSettings(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// interpolateSettings expands ${VAR_NAME} references in every string
// setting, whichever source it came from.
func interpolateSettings(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok || !strings.Contains(s, "${") {
			continue
		}
		v.Set(key, interpolateString(s))
	}
}

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset or empty variables leave the reference untouched.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")

		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}

		return match
	})
}
