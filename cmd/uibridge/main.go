package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/codewiresh/uibridge/internal/config"
)

var (
	dirFlag      string
	logLevelFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "uibridge",
		Short:         "Headless page bridge for server-driven UIs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			h, err := newLogHandler(os.Stderr, isTerminal(os.Stderr), logLevelFlag)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(h))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Data directory (default $UIBRIDGE_DIR or ~/.uibridge)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		connectCmd(),
		replayCmd(),
		journalCmd(),
		sessionsCmd(),
		configCmd(),
		commandsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[uibridge] %v\n", err)
		os.Exit(1)
	}
}

func dataDir() string {
	if dirFlag != "" {
		return dirFlag
	}
	return config.DataDir()
}

func ensureDataDir() (string, error) {
	dir := dataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return dir, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newLogHandler returns a text handler for terminals and a JSON handler
// otherwise.
func newLogHandler(w io.Writer, tty bool, level string) (slog.Handler, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if tty {
		return slog.NewTextHandler(w, opts), nil
	}
	return slog.NewJSONHandler(w, opts), nil
}

// parseViewport parses a window size written as WIDTHxHEIGHT.
func parseViewport(s string) (width, height float64, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("viewport %q: expected WIDTHxHEIGHT", s)
	}
	width, err = strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("viewport %q: invalid width", s)
	}
	height, err = strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("viewport %q: invalid height", s)
	}
	return width, height, nil
}
