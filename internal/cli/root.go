package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdecheck/rdecheck/pkg/log"
	"github.com/rdecheck/rdecheck/pkg/version"
)

const (
	cmdName = "rdecheck"
	cmdDesc = `Validate RDE CSV files against a per-line, per-cell rule table.`
)

type RootArgs struct {
	LogLevel  string
	LogFormat string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&ra.LogLevel, "log-level", "info",
		"Log level, one of: "+strings.Join(log.AllLevels, ", "))
	flags.StringVar(&ra.LogFormat, "log-format", "text",
		"Log format, one of: "+strings.Join(log.AllFormats, ", "))

	for name, values := range map[string][]string{
		"log-level":  log.AllLevels,
		"log-format": log.AllFormats,
	} {
		must(cmd.RegisterFlagCompletionFunc(name,
			cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp),
		))
	}
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	checkArgs := NewCheckArgs(args)

	checkCmd := NewCheckCmd(checkArgs)
	cmd := &cobra.Command{
		Use:               cmdName + " [<kind>:]<path>...",
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		ValidArgsFunction: checkCompletion(checkArgs),
		Args:              checkCmd.Args,
		RunE:              checkCmd.RunE,
		SilenceUsage:      true,
	}

	args.AddFlags(cmd)
	checkArgs.AddFlags(cmd)
	cmd.AddCommand(
		checkCmd,
		NewListCmd(NewListArgs(args)),
		NewSchemaCmd(),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))
		slog.Debug("starting", slog.Any("build", version.LogValue()))

		return nil
	}
}
