package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilentExit) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		cancel()
		os.Exit(1)
	}
}

// errSilentExit fails the process without printing anything more; the command
// has already reported the problem.
var errSilentExit = errors.New("exit")

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	var closeLog func()

	cmd := &cobra.Command{
		Use:   "bunnypub",
		Short: "Publish the media embedded in Obsidian notes to Bunny.net",
		Long: dedentText(`
			bunnypub uploads every image and video embedded in a Markdown note
			(![[file.png]]) to a Bunny.net storage zone or an S3 bucket, writes alt
			text for images and rewrites the note to point at the CDN copies.

			Examples:
			   bunnypub init                          # Interactive configuration
			   bunnypub publish Posts/hello.md        # Publish one note
			   bunnypub publish --dry-run Posts/*.md  # Show what would change
			   bunnypub doctor                        # Check storage and credentials
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := setupLogging(opts)
			if err != nil {
				return err
			}
			closeLog = c
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if closeLog != nil {
				closeLog()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write logs to this file")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print warnings, errors and the summary")

	cmd.AddCommand(
		newPublishCommand(opts),
		newInitCommand(opts),
		newConfigCommand(opts),
		newDoctorCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

// setupLogging configures the global zerolog logger. The returned func closes
// the log file, if any.
func setupLogging(opts *globalOptions) (func(), error) {
	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !colorEnabled(opts)}
	if opts.logFile == "" {
		log.Logger = log.Output(consoleWriter)
		return func() {}, nil
	}

	logFile, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	multiWriter := io.MultiWriter(consoleWriter, fileWriter)
	log.Logger = log.Output(multiWriter)
	log.Debug().Str("logFile", opts.logFile).Msg("logging to file")

	return func() { logFile.Close() }, nil
}

// colorEnabled reports whether stderr should get ANSI colours.
func colorEnabled(opts *globalOptions) bool {
	if opts.noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// isInteractiveTerminal returns true if both stdin and stdout are TTYs.
// This is used to determine if we can run the interactive setup wizard.
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// loadConfig reads the env file and the YAML config and merges them with the
// environment.
func loadConfig(opts *globalOptions) (config.Config, error) {
	config.LoadEnvFile()
	return config.Load(opts.configFile)
}
