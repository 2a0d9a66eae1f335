package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewiresh/uibridge/internal/config"
	"github.com/codewiresh/uibridge/internal/store"
	"github.com/codewiresh/uibridge/internal/transport"
)

// ---------------------------------------------------------------------------
// sessionsCmd
// ---------------------------------------------------------------------------

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored session ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ensureDataDir()
			if err != nil {
				return err
			}
			st, err := store.NewSQLiteStore(dir)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.SessionList(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(os.Stderr, "no stored sessions")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "URL\tSESSION\tUPDATED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.URL, r.SessionID, r.UpdatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(sessionsForgetCmd(), sessionsPruneCmd())
	return cmd
}

func sessionsForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <page-url>",
		Short: "Drop the stored session id of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateURL(args[0]); err != nil {
				return err
			}
			wsURL, err := transport.ChannelURL(args[0])
			if err != nil {
				return err
			}
			st, err := store.NewSQLiteStore(dataDir())
			if err != nil {
				return err
			}
			defer st.Close()
			return st.SessionDelete(context.Background(), wsURL)
		},
	}
}

func sessionsPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop session ids not used recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(dataDir())
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.SessionPrune(context.Background(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "pruned %d session(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", store.SessionMaxAge, "Age of the sessions to drop")
	return cmd
}
