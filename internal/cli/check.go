package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rdecheck/rdecheck/api/v1beta1/configs"
	"github.com/rdecheck/rdecheck/pkg/check"
	"github.com/rdecheck/rdecheck/pkg/csvfile"
	"github.com/rdecheck/rdecheck/pkg/filespec"
	"github.com/rdecheck/rdecheck/pkg/log"
	"github.com/rdecheck/rdecheck/pkg/report"
	"github.com/rdecheck/rdecheck/pkg/rule"
	"github.com/rdecheck/rdecheck/pkg/watch"
)

const cmdExamples = `
  # Validate files, detecting their kinds.
  rdecheck data/run-01.csv data/params.csv

  # Give the kind explicitly.
  rdecheck f1:data/run-01.csv f2:data/params.csv

  # Read from stdin.
  cat data/run-01.csv | rdecheck f1:-

  # Use a custom rule table and report as JSON.
  rdecheck --schema ./rules.yaml -o json data/*.csv

  # Re-validate whenever the files or the rule table change.
  rdecheck --watch data/*.csv`

var ErrStdinWatch = errors.New("cannot watch stdin")

type CheckArgs struct {
	*RootArgs
	ConfigArgs

	DefaultKind string
	Delimiter   string
	Output      string
	Jobs        int
	Watch       bool
	WriteConfig bool
	Verbose     bool
}

func NewCheckArgs(ra *RootArgs) *CheckArgs {
	return &CheckArgs{RootArgs: ra}
}

func (ca *CheckArgs) AddFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	ca.ConfigArgs.AddFlags(flags)
	flags.StringVarP(&ca.DefaultKind, "default-kind", "f", "", "File kind for file-specs without one")
	flags.StringVarP(&ca.Delimiter, "delimiter", "d", configs.DefaultDelimiter,
		`Cell delimiter, a single character or "tab"`)
	flags.StringVarP(&ca.Output, "output", "o", configs.DefaultOutput,
		fmt.Sprintf("Report format, one of: %s", strings.Join(report.Formats(), ", ")))
	flags.IntVarP(&ca.Jobs, "jobs", "j", 0, "Number of files processed concurrently (0 uses all CPUs)")
	flags.BoolVarP(&ca.Watch, "watch", "w", false, "Re-validate when the files or the rule table change")
	flags.BoolVar(&ca.WriteConfig, "write-config", false, "Write the default configuration file and exit")
	flags.BoolVarP(&ca.Verbose, "verbose", "v", false, "Also report passing lines")

	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(report.Formats(), cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.MarkFlagFilename("config", "yaml", "yml"))
	must(cmd.MarkFlagFilename("schema", "yaml", "yml"))
}

func NewCheckCmd(ca *CheckArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "check [<kind>:]<path>...",
		Short:             "Validate files against the rule table",
		Example:           cmdExamples,
		ValidArgsFunction: checkCompletion(ca),
		Args: func(cmd *cobra.Command, args []string) error {
			if ca.WriteConfig {
				return nil
			}

			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, ca, args)
		},
		SilenceUsage: true,
	}

	ca.AddFlags(cmd)

	return cmd
}

// settings are the check options after merging flags over the configuration.
type settings struct {
	reader      *csvfile.Reader
	schemaPath  string
	defaultKind string
	format      report.Format
	jobs        int
}

func runCheck(cmd *cobra.Command, ca *CheckArgs, args []string) error {
	if ca.WriteConfig {
		path := ca.ConfigPath
		if path == "" {
			path = configs.GetPath()
		}

		err := configs.WriteDefault(path, false)
		if err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		return nil
	}

	color := isTerminal(cmd.OutOrStdout())

	cfg, err := ca.LoadConfig(color)
	if err != nil {
		return err
	}

	s, err := ca.settings(cmd, cfg)
	if err != nil {
		return err
	}

	specs, err := filespec.ParseAll(args)
	if err != nil {
		return fmt.Errorf("parse file-specs: %w", err)
	}

	detector, err := cfg.Detector()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	reg := rule.NewRegistry()
	renderer := report.NewRenderer(cmd.OutOrStdout(), s.format,
		report.WithColor(color),
		report.WithVerbose(ca.Verbose),
	)

	run := func(ctx context.Context) error {
		sch, err := LoadSchema(reg, s.schemaPath)
		if err != nil {
			return err
		}

		resolver := filespec.NewResolver(sch,
			filespec.WithDetector(detector),
			filespec.WithDefaultKind(s.defaultKind),
		)

		inputs, err := resolver.Inputs(ctx, specs, s.reader, cmd.InOrStdin(), s.jobs)
		if err != nil {
			return fmt.Errorf("read files: %w", err)
		}

		rep, err := check.ValidateMany(ctx, inputs, check.WithJobs(s.jobs))
		if err != nil {
			return err //nolint:wrapcheck // Already wrapped.
		}

		logger := log.WithContext(ctx)
		for _, f := range rep.Files {
			status := "OK"
			if !f.Pass {
				status = "FAILED"
			}

			logger.Debug("validated file",
				slog.String("file", f.Name),
				slog.String("kind", f.Kind),
				slog.String("status", status),
			)
		}

		err = renderer.Render(rep)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		return rep.Err() //nolint:wrapcheck // Sentinel for the exit code.
	}

	if !ca.Watch {
		return run(cmd.Context())
	}

	return watchFiles(cmd.Context(), specs, s.schemaPath, run)
}

func (ca *CheckArgs) settings(cmd *cobra.Command, cfg *configs.Config) (*settings, error) {
	delimiter, output := cfg.Delimiter, cfg.Output
	defaultKind, jobs := cfg.DefaultKind, cfg.Jobs

	if flagSet(cmd, "delimiter") {
		delimiter = ca.Delimiter
	}
	if flagSet(cmd, "output") {
		output = ca.Output
	}
	if flagSet(cmd, "default-kind") {
		defaultKind = ca.DefaultKind
	}
	if flagSet(cmd, "jobs") {
		jobs = ca.Jobs
	}

	if jobs < 0 {
		return nil, fmt.Errorf("invalid jobs %d: must not be negative", jobs)
	}

	d, err := csvfile.ParseDelimiter(delimiter)
	if err != nil {
		return nil, fmt.Errorf("invalid delimiter: %w", err)
	}

	format, err := report.ParseFormat(output)
	if err != nil {
		return nil, fmt.Errorf("invalid output: %w", err)
	}

	schemaPath, err := ca.RuleTablePath(cfg)
	if err != nil {
		return nil, err
	}

	return &settings{
		reader:      csvfile.NewReader(csvfile.WithDelimiter(d)),
		schemaPath:  schemaPath,
		defaultKind: defaultKind,
		format:      format,
		jobs:        jobs,
	}, nil
}

// watchFiles runs fn once, then again whenever a file or the rule table
// changes, until ctx is done.
func watchFiles(ctx context.Context, specs []filespec.Spec, schemaPath string, fn func(context.Context) error) error {
	paths := make([]string, 0, len(specs)+1)
	for _, s := range specs {
		if s.Stdin() {
			return ErrStdinWatch
		}

		paths = append(paths, s.Path)
	}

	if schemaPath != "" {
		paths = append(paths, schemaPath)
	}

	w, err := watch.New(paths)
	if err != nil {
		return fmt.Errorf("watch files: %w", err)
	}
	defer w.Close()

	logResult(fn(ctx))

	slog.Info("watching for changes", slog.Int("files", w.Files()))

	err = w.Run(ctx, func(ctx context.Context, changed string) error {
		slog.Info("file changed, validating", slog.String("path", changed))

		logResult(fn(ctx))

		return nil
	})
	if err != nil {
		return fmt.Errorf("watch files: %w", err)
	}

	return nil
}

func logResult(err error) {
	switch {
	case err == nil:
		slog.Info("all files passed")
	case errors.Is(err, check.ErrValidationFailed):
		slog.Warn("validation failed", slog.Any("err", err))
	default:
		slog.Error("validation error", slog.Any("err", err))
	}
}

func checkCompletion(ca *CheckArgs) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		// Complete the kind prefix of a file-spec from the rule table.
		if strings.Contains(toComplete, ":") || strings.ContainsAny(toComplete, `/\.`) {
			return nil, cobra.ShellCompDirectiveDefault
		}

		cfg, err := ca.LoadConfig(false)
		if err != nil {
			return nil, cobra.ShellCompDirectiveDefault
		}

		path, err := ca.RuleTablePath(cfg)
		if err != nil {
			return nil, cobra.ShellCompDirectiveDefault
		}

		sch, err := LoadSchema(rule.NewRegistry(), path)
		if err != nil {
			return nil, cobra.ShellCompDirectiveDefault
		}

		kinds := make([]string, 0, len(sch.FileKinds))
		for _, k := range sch.FileKinds {
			if strings.HasPrefix(k.ID, toComplete) {
				kinds = append(kinds, k.ID+":")
			}
		}

		return kinds, cobra.ShellCompDirectiveNoSpace
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // File descriptors fit in an int.
}
