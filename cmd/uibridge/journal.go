package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewiresh/uibridge/internal/config"
	"github.com/codewiresh/uibridge/internal/journal"
)

// ---------------------------------------------------------------------------
// journalCmd
// ---------------------------------------------------------------------------

func journalCmd() *cobra.Command {
	var (
		tail      int
		direction string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the traffic journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dataDir()
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}
			path := cfg.JournalPath(dir)
			if path == "" {
				return fmt.Errorf("journal is disabled in config.toml")
			}
			entries, err := journal.Read(path)
			if err != nil {
				return fmt.Errorf("reading journal: %w", err)
			}
			entries = filterEntries(entries, journal.Direction(direction), tail)

			for _, e := range entries {
				if err := printEntry(os.Stdout, e, raw); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "Only the last N entries")
	cmd.Flags().StringVar(&direction, "direction", "", "Only entries of one direction: in, out, drop")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print entries as JSON lines")
	return cmd
}

// printEntry writes one journal entry, as JSON when raw is set.
func printEntry(w io.Writer, e journal.Entry, raw bool) error {
	if raw {
		return json.NewEncoder(w).Encode(e)
	}
	_, err := fmt.Fprintf(w, "%s %-4s %s\n", e.Timestamp.Local().Format(time.DateTime), e.Direction, e.Payload)
	return err
}

// traceEntries prints live entries from sub until it is unsubscribed.
func traceEntries(w io.Writer, sub *journal.Subscription, raw bool) {
	for e := range sub.Ch {
		if err := printEntry(w, e, raw); err != nil {
			return
		}
	}
}

func filterEntries(entries []journal.Entry, dir journal.Direction, tail int) []journal.Entry {
	if dir != "" {
		kept := entries[:0]
		for _, e := range entries {
			if e.Direction == dir {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	return entries
}
