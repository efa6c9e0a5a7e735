package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/stagegrid/internal/app"
	"github.com/vk/stagegrid/internal/trigger"
)

// Version is set at build time.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Runner executes a validated configuration.
type Runner func(ctx context.Context, cfg *app.Config) error

// Execute runs the command line in args. Input errors map to exit code 2 and
// run failures to exit code 1, both as *ExitError.
func Execute(ctx context.Context, args []string, outW io.Writer, run Runner) error {
	root := NewRootCommand(outW, run)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var re *runError
	if errors.As(err, &re) {
		return &ExitError{Code: 1, Message: re.err.Error()}
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

// runError wraps errors returned by the Runner.
type runError struct{ err error }

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

// NewRootCommand builds the command tree. Output, including help, goes to outW.
func NewRootCommand(outW io.Writer, run Runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "stagegrid",
		Short: "Run stage pipelines with hierarchical context resolution",
		Long: `stagegrid runs a pipeline of stages declared in HCL. Each stage sees its
own context values first, then the outputs of its ancestors nearest first,
and, for pipeline runs, the trigger that started the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file with default flag values.")

	root.AddCommand(newRunCommand(run), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stagegrid %s\n", Version)
		},
	}
}

func newRunCommand(run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [PIPELINE_PATH]",
		Short: "Run a pipeline",
		Long: `Run loads every .hcl file under PIPELINE_PATH (a file or a directory)
and executes the stages it declares.

Every flag can also be set through the environment with the STAGEGRID_
prefix, e.g. STAGEGRID_LOG_LEVEL=debug, or in the file given by --config.
STAGEGRID_SET takes several assignments separated by ';', e.g.
STAGEGRID_SET="region=eu-west-1;note=two words". In the config file, set is
a list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			if err := run(cmd.Context(), cfg); err != nil {
				return &runError{err: err}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("pipeline", "p", "", "Path to the pipeline file or directory.")
	flags.String("trigger-file", "", "Path to a YAML or JSON trigger payload.")
	flags.StringArray("set", nil, "Trigger value as key=value. Repeatable; wins over --trigger-file.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.Int("workers", 10, "Number of concurrent workers for the executor.")
	flags.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	flags.String("store", "memory", "Where stage state is kept. Options: 'memory' or 'redis'.")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis store.")
	flags.String("redis-prefix", "stagegrid", "Key prefix for the redis store.")
	flags.String("execution-id", "", "Reuse an execution ID to resume a run against a persistent store.")
	return cmd
}

// loadConfig layers flags over environment over config file over defaults.
func loadConfig(cmd *cobra.Command, args []string) (*app.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("STAGEGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	path := v.GetString("pipeline")
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, errors.New("no pipeline path given: pass PIPELINE_PATH or --pipeline")
	}

	inline, err := trigger.ParseAssignments(triggerAssignments(cmd, v))
	if err != nil {
		return nil, err
	}

	return app.NewConfig(app.Config{
		PipelinePath:    path,
		TriggerPath:     v.GetString("trigger-file"),
		Trigger:         inline,
		LogFormat:       strings.ToLower(v.GetString("log-format")),
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		HealthcheckPort: v.GetInt("healthcheck-port"),
		WorkerCount:     v.GetInt("workers"),
		Store:           strings.ToLower(v.GetString("store")),
		RedisAddr:       v.GetString("redis-addr"),
		RedisPrefix:     v.GetString("redis-prefix"),
		ExecutionID:     v.GetString("execution-id"),
	})
}

// assignmentSeparator splits STAGEGRID_SET into assignments.
const assignmentSeparator = ";"

// triggerAssignments returns the --set values. Flags are taken verbatim, a
// string from the environment is split on assignmentSeparator, and a list
// from the config file is used as is.
func triggerAssignments(cmd *cobra.Command, v *viper.Viper) []string {
	if cmd.Flags().Changed("set") {
		out, _ := cmd.Flags().GetStringArray("set")
		return out
	}
	if raw, ok := v.Get("set").(string); ok {
		var out []string
		for _, part := range strings.Split(raw, assignmentSeparator) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return v.GetStringSlice("set")
}
