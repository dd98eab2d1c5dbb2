package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coursecal/internal/config"
	"coursecal/internal/convert"
	appLog "coursecal/internal/log"
)

// version will be set by the release build
var version = "0.1.0-dev"

// globalFlags holds flags shared by every command.
type globalFlags struct {
	configPath string
	nonEvents  string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

// execute runs the CLI and logs a fatal error exactly once.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)

	if err := root.ExecuteContext(ctx); err != nil {
		appLog.Error(fatalMessage(err), err)
		return err
	}
	return nil
}

func fatalMessage(err error) string {
	switch {
	case errors.Is(err, convert.ErrReadInput):
		return "could not access input file"
	case errors.Is(err, convert.ErrParseInput):
		return "could not parse ICS file"
	case errors.Is(err, convert.ErrWriteOutput):
		return "could not write output file"
	default:
		return "coursecal failed"
	}
}

func newRootCmd() *cobra.Command {
	var (
		flags      globalFlags
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "coursecal <input.ics|url>",
		Short: "Rewrite course calendar exports into readable events",
		Long: `coursecal reads an iCalendar export of a course schedule and rewrites each
event so that it reads well in a calendar app:

  SUMMARY      "250 Data Structures"                  -> "Data Structures 250"
  LOCATION     "Engineering and Science Ctr,room 101" -> "ENS 101"
  DESCRIPTION  "REG,[LEC],taught by Doe, John"        -> "Class Type: LEC | Professor(s): John Doe"

Fields that do not follow the export format are kept as they are and a
warning is printed. All other event properties are copied unchanged.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, ok := appLog.ParseLevel(flags.logLevel)
			if !ok {
				return errors.New("unknown log level " + flags.logLevel)
			}
			appLog.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if outputFile == "" {
				outputFile = cfg.OutputFile
			}

			appLog.Debug("effective config",
				"input", args[0],
				"output", outputFile,
				"buildings", len(cfg.Buildings),
				"non_event_components", string(cfg.NonEventComponents),
				"product_id", cfg.ProductID,
			)

			_, err = convert.Run(cmd.Context(), convert.Options{
				Input:     args[0],
				Output:    outputFile,
				Buildings: cfg.Table(),
				NonEvents: cfg.NonEventComponents,
				ProductID: cfg.ProductID,
			})
			return err
		},
	}

	cmd.SetVersionTemplate(`{{printf "coursecal version %s\n" .Version}}`)

	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", `Output file (default "./output.ics", or output_file from the config)`)

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file (default $"+config.EnvConfigPath+", else built-in defaults)")
	cmd.PersistentFlags().StringVar(&flags.nonEvents, "non-events", "", "What to do with non-event components: keep or drop (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(newPreviewCmd(&flags))
	cmd.AddCommand(newConfigCmd(&flags))

	return cmd
}

// loadConfig resolves and loads the config file, then applies flag overrides.
func loadConfig(flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(flags.configPath))
	if err != nil {
		return nil, err
	}
	if flags.nonEvents != "" {
		policy, err := config.ParseComponentPolicy(flags.nonEvents)
		if err != nil {
			return nil, err
		}
		cfg.NonEventComponents = policy
	}
	return cfg, nil
}
