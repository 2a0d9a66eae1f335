package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codewiresh/uibridge/internal/bridge"
	"github.com/codewiresh/uibridge/internal/config"
	"github.com/codewiresh/uibridge/internal/journal"
	"github.com/codewiresh/uibridge/internal/scenario"
)

// ---------------------------------------------------------------------------
// replayCmd
// ---------------------------------------------------------------------------

func replayCmd() *cobra.Command {
	var (
		pageURL   string
		printSent bool
	)

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Play a scripted UI session",
		Long: `Play a scripted UI session through a page.

Without --url the scenario runs offline: every message counts as sent and
is written to the journal. With --url the page talks to a live controller.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			doc, err := s.NewDocument()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			dir, err := ensureDataDir()
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}

			page := bridge.New(bridge.Config{Document: doc})
			rec := &scenario.Recorder{}
			if pageURL != "" {
				if err := config.ValidateURL(pageURL); err != nil {
					return err
				}
				sess, err := openSession(ctx, dir, cfg, pageURL, page, false)
				if err != nil {
					return err
				}
				defer sess.close()
				rec.Inner = sess.transport
			} else {
				j, err := journal.Open(cfg.JournalPath(dir))
				if err != nil {
					return err
				}
				defer j.Close()
				rec.Journal = j
			}
			page.Attach(rec)

			if err := page.Start(ctx); err != nil {
				return err
			}
			runErr := s.Run(ctx, page, rec)
			if err := page.Unload(); err != nil && runErr == nil {
				runErr = err
			}

			sent := rec.Sent()
			if printSent {
				for _, m := range sent {
					fmt.Fprintln(os.Stdout, m)
				}
			}
			if runErr != nil {
				return fmt.Errorf("scenario %q: %w", s.Name, runErr)
			}
			fmt.Fprintf(os.Stderr, "[uibridge] scenario %q passed (%d steps, %d messages)\n", s.Name, len(s.Steps), len(sent))
			return nil
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "Page URL of a live controller")
	cmd.Flags().BoolVar(&printSent, "print", false, "Print the messages the page sent")
	return cmd
}
