package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"locforge/internal/parser"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "locforge",
		Short: "Translate localization files without breaking their structure",
		Long: `locforge extracts translatable strings from spreadsheets (xlsx, xls, csv),
JSON, Android string resources, XML and gettext catalogs (po, pot), sends them
to a translation service and writes the results back into the original files.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(glossaryCmd())

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// readFile loads path as a parser.File.
func readFile(path string) (parser.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return parser.File{}, fmt.Errorf("read input: %w", err)
	}
	return parser.File{Name: filepath.Base(path), Content: content}, nil
}

// outputPath picks the destination for a rewritten file: the explicit
// path when given, otherwise the input name with suffix before the
// extension ("ui.csv" becomes "ui.fr.csv").
func outputPath(input, explicit, suffix string) string {
	if explicit != "" {
		return explicit
	}
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + "." + suffix + parser.OutputExtension(ext)
}

func writeOutput(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
