package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars binds every flag of cmd and its subcommands to an environment
// variable named RDECHECK_<FLAG>, e.g. "log-level" to RDECHECK_LOG_LEVEL.
//
// Values read from the environment mark the flag as changed, so they take
// precedence over the configuration file. Command line arguments are parsed
// later and override them. Flag usage strings name their variable.
func bindEnvVars(cmd *cobra.Command) {
	bind := func(flag *pflag.Flag) {
		bindFlagToEnv(flag)
	}

	cmd.PersistentFlags().VisitAll(bind)
	cmd.LocalNonPersistentFlags().VisitAll(bind)

	for _, sub := range cmd.Commands() {
		bindEnvVars(sub)
	}
}

func bindFlagToEnv(flag *pflag.Flag) {
	envName := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, "$"+envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	if flag.Changed {
		return
	}

	value, ok := os.LookupEnv(envName)
	if !ok {
		return
	}

	err := flag.Value.Set(value)
	if err != nil {
		// Keep the default; the value is reported but not fatal.
		slog.Error("ignoring invalid environment variable",
			slog.String("flag", flag.Name),
			slog.String("env", envName),
			slog.String("value", value),
			slog.Any("error", err),
		)

		return
	}

	flag.Changed = true
}

func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
