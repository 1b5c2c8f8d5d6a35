// Package config provides configuration parsing and validation for the
// passchain CLI host.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config is the CLI's own configuration: which vault file to operate on by
// default, the default password-generator preferences, logging, and a
// cached fingerprint of the last vault opened. It never holds vault
// contents or a master password; those live only in a vault.Database's
// in-memory state.
type Config struct {
	Vault     VaultConfig     `yaml:"vault"`
	Generator GeneratorConfig `yaml:"generator"`
	Log       LogConfig       `yaml:"log"`
	Recent    RecentVault     `yaml:"recent"`
}

// VaultConfig holds a default vault file path. It is parsed and validated,
// but no subcommand reads it: every subcommand takes its vault path as an
// explicit argument.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// GeneratorConfig is the default GeneratorSpec the `generate` and `add`
// subcommands fall back to when no flag overrides a field.
type GeneratorConfig struct {
	UseLetters     bool   `yaml:"use_letters"`
	UseNumbers     bool   `yaml:"use_numbers"`
	UseSpecial     bool   `yaml:"use_special"`
	UseExtra       bool   `yaml:"use_extra"`
	ExtraAlphabet  string `yaml:"extra_alphabet"`
	PasswordLength uint16 `yaml:"password_length"`
}

// LogConfig controls the CLI's own structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// RecentVault remembers a bcrypt fingerprint of the last vault path the CLI
// touched, so a subcommand can warn the operator when it's about to act on
// a different file than the one they probably meant ("you usually open
// ~/vault.pcv, but this path is ~/other.pcv, continue?"). The path itself
// is never stored, only a one-way bcrypt hash of it.
type RecentVault struct {
	PathHash string `yaml:"path_hash"`
}

// Remember replaces the stored fingerprint with one derived from path.
func (r *RecentVault) Remember(path string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(path), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("config: hashing recent vault path: %w", err)
	}
	r.PathHash = string(hash)
	return nil
}

// Matches reports whether path fingerprints to the stored hash. It returns
// false, not an error, when no fingerprint has been recorded yet.
func (r *RecentVault) Matches(path string) bool {
	if r.PathHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(r.PathHash), []byte(path)) == nil
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Vault: VaultConfig{
			Path: "./vault.pcv",
		},
		Generator: GeneratorConfig{
			UseLetters:     true,
			UseNumbers:     true,
			UseSpecial:     true,
			PasswordLength: 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, starting from Default() so
// any field the document omits keeps its default.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// envVarRegex matches ${VAR} or $VAR patterns.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces environment variable references with their
// values, supporting the ${VAR:-default} form.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}

		if idx := strings.Index(name, ":-"); idx != -1 {
			varName := name[:idx]
			defaultVal := name[idx+2:]
			if val, ok := os.LookupEnv(varName); ok {
				return val
			}
			return defaultVal
		}

		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Vault.Path == "" {
		errs = append(errs, "vault.path is required")
	}
	if !isValidLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("invalid log.level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}
	if !isValidLogFormat(c.Log.Format) {
		errs = append(errs, fmt.Sprintf("invalid log.format: %s (must be text or json)", c.Log.Format))
	}
	if c.Generator.PasswordLength == 0 {
		errs = append(errs, "generator.password_length must be positive")
	}
	if !c.Generator.UseLetters && !c.Generator.UseNumbers && !c.Generator.UseSpecial && !c.Generator.UseExtra {
		errs = append(errs, "generator must enable at least one character class")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	switch format {
	case "text", "json":
		return true
	default:
		return false
	}
}

// String returns a YAML representation of the config safe to log or
// display: the redacted fingerprint form.
func (c *Config) String() string {
	data, _ := yaml.Marshal(c.Redacted())
	return string(data)
}

// redactedValue is the placeholder for sensitive values.
const redactedValue = "[REDACTED]"

// Redacted returns a copy of the config with the recent-vault fingerprint
// redacted. Every other field is already non-sensitive (a bcrypt hash is
// one-way, but it still pins down file-naming habits worth hiding from
// shared logs).
func (c *Config) Redacted() *Config {
	redacted := *c
	if redacted.Recent.PathHash != "" {
		redacted.Recent.PathHash = redactedValue
	}
	return &redacted
}
