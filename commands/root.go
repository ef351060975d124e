// Package commands implements the schemagen command line.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/siegeai/schemagen/formats"
	"github.com/siegeai/schemagen/jsonschema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var errNothingToDo = errors.New("no schema or object input given")

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "schemagen: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree around a fresh viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "schemagen [flags] [FILE...]",
		Short: "Generate a JSON Schema from JSON or YAML samples",
		Long: `schemagen reads sample documents and produces one JSON Schema that
accepts all of them. Existing schemas given with --schema are merged in first.
Objects are read from FILE arguments, or from stdin when none are given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			return setupLogging(v.GetString("log_level"), cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, v, args)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "configuration file (yaml or json)")
	pf.String("log-level", "warn", "logging level (debug, info, warn, error)")
	pf.IntP("indent", "i", 0, "indent output by this many spaces")
	pf.StringP("schema-uri", "$", "", `value of "$schema"; NULL omits it`)
	pf.Bool("no-merge-arrays", false, "infer arrays as positional tuples")
	pf.Bool("no-additional-items", false, `emit "additionalItems": false for tuples`)
	pf.Bool("no-additional-props", false, `emit "additionalProperties": false for objects`)
	pf.StringArray("match-props", nil, "route property names matching this regexp to patternProperties (repeatable)")
	pf.Bool("no-required", false, `do not infer "required"`)
	pf.Bool("infer-formats", false, "infer string formats (uuid, date-time, date, email, ipv4, ipv6)")

	bindFlags(v, "", pf, "config", "log-level", "indent", "schema-uri", "infer-formats")

	addGenerateFlags(root, v)
	root.AddCommand(newServeCommand(v), newCaptureCommand(v))
	return root
}

// bindFlags binds each named flag to the viper key prefix+name, with dashes
// in the name replaced by underscores.
func bindFlags(v *viper.Viper, prefix string, fs *pflag.FlagSet, names ...string) {
	for _, n := range names {
		v.BindPFlag(prefix+strings.ReplaceAll(n, "-", "_"), fs.Lookup(n))
	}
}

// loadConfig reads the --config file, if any, and enables SCHEMAGEN_*
// environment overrides.
func loadConfig(v *viper.Viper) error {
	if f := v.GetString("config"); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.SetEnvPrefix("SCHEMAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

func setupLogging(level string, w io.Writer) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
	return nil
}

// builderOptions resolves the builder configuration. The "generator" section
// of the config file is applied first and command line flags override it.
func builderOptions(cmd *cobra.Command, v *viper.Viper) ([]jsonschema.Option, error) {
	cfg := jsonschema.DefaultConfig()
	if err := v.UnmarshalKey("generator", &cfg); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}

	flags := cmd.Flags()
	if b, _ := flags.GetBool("no-merge-arrays"); b {
		cfg.MergeArrays = false
	}
	if b, _ := flags.GetBool("no-additional-items"); b {
		cfg.AdditionalItems = false
	}
	if b, _ := flags.GetBool("no-additional-props"); b {
		cfg.AdditionalProperties = false
	}
	if b, _ := flags.GetBool("no-required"); b {
		cfg.Required = false
	}
	if ps, _ := flags.GetStringArray("match-props"); len(ps) > 0 {
		cfg.MatchProps = ps
	}
	if uri := v.GetString("schema_uri"); uri != "" {
		cfg.SchemaURI = uri
	}

	opts := append(cfg.Options(), jsonschema.WithLogger(slog.Default()))
	if v.GetBool("infer_formats") {
		opts = append(opts, jsonschema.WithStrategies(formats.Kind()))
	}
	return opts, nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
