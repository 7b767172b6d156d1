package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rdecheck/rdecheck/api"
	"github.com/rdecheck/rdecheck/api/v1beta1/configs"
	"github.com/rdecheck/rdecheck/pkg/config"
	"github.com/rdecheck/rdecheck/pkg/rule"
	"github.com/rdecheck/rdecheck/pkg/schema"
)

// RuleTableFileNames are searched for, from the working directory upwards,
// when no rule table is configured.
var RuleTableFileNames = []string{"rdecheck-rules.yaml", ".rdecheck-rules.yaml"}

// ConfigArgs are the flags shared by commands that need a configuration and
// a rule table.
type ConfigArgs struct {
	ConfigPath string
	SchemaPath string
}

func (ca *ConfigArgs) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&ca.ConfigPath, "config", "", "Path to the configuration file")
	flags.StringVar(&ca.SchemaPath, "schema", "", "Path to the rule table")
}

// LoadConfig loads and validates the configuration. A missing file yields the
// defaults.
func (ca *ConfigArgs) LoadConfig(color bool) (*configs.Config, error) {
	path := ca.ConfigPath
	if path == "" {
		path = configs.GetPath()
	}

	cfg, err := config.LoadFile(path, configs.New, configs.DefaultValidator, config.WithColor(color))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return cfg, nil
}

// RuleTablePath returns the rule table to load: the flag, then the
// configuration, then the nearest rule table file. An empty result means the
// embedded default.
func (ca *ConfigArgs) RuleTablePath(cfg *configs.Config) (string, error) {
	if ca.SchemaPath != "" {
		return ca.SchemaPath, nil
	}

	if cfg.Schema != "" {
		return cfg.Schema, nil
	}

	path, err := api.FindUp(".", RuleTableFileNames...)
	if err != nil {
		return "", fmt.Errorf("find rule table: %w", err)
	}

	return path, nil
}

// LoadSchema loads the rule table at path, or the embedded default when path
// is empty.
func LoadSchema(reg *rule.Registry, path string) (*schema.Schema, error) {
	if path == "" {
		slog.Debug("using embedded rule table")

		s, err := schema.Default(reg)
		if err != nil {
			return nil, fmt.Errorf("load default rule table: %w", err)
		}

		return s, nil
	}

	s, err := schema.LoadFile(path, reg)
	if err != nil {
		return nil, fmt.Errorf("load rule table: %w", err)
	}

	return s, nil
}

// flagSet reports whether a flag was given on the command line or through its
// environment variable.
func flagSet(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}
