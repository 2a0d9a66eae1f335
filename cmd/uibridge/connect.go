package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewiresh/uibridge/internal/bridge"
	"github.com/codewiresh/uibridge/internal/config"
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/events"
	"github.com/codewiresh/uibridge/internal/journal"
	"github.com/codewiresh/uibridge/internal/store"
	"github.com/codewiresh/uibridge/internal/transport"
)

const maxDocumentSize = 16 << 20

// ---------------------------------------------------------------------------
// connectCmd
// ---------------------------------------------------------------------------

func connectCmd() *cobra.Command {
	var (
		document string
		viewport string
		resume   bool
		trace    bool
	)

	cmd := &cobra.Command{
		Use:   "connect [page-url]",
		Short: "Load a page and keep its session channel open",
		Long: `Load a page and keep its session channel open until interrupted.

The document is fetched from the page URL unless --document names a local
HTML file. SIGUSR1 blurs the window (pausing the session) and SIGUSR2
focuses it again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ensureDataDir()
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig(dir)
			if err != nil {
				return err
			}
			pageURL := cfg.URL
			if len(args) == 1 {
				pageURL = args[0]
			}
			if pageURL == "" {
				return fmt.Errorf("no page url (pass one or set url in config.toml)")
			}
			if err := config.ValidateURL(pageURL); err != nil {
				return err
			}
			width, height, err := parseViewport(viewport)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var doc *dom.Document
			if document != "" {
				doc, err = loadDocument(document)
			} else {
				doc, err = fetchDocument(ctx, pageURL)
			}
			if err != nil {
				return err
			}
			doc.Viewport = dom.Rect{Width: width, Height: height}

			images, err := events.NewImageLoader(nil, pageURL)
			if err != nil {
				return err
			}
			page := bridge.New(bridge.Config{Document: doc, Images: images})

			sess, err := openSession(ctx, dir, cfg, pageURL, page, resume)
			if err != nil {
				return err
			}
			defer sess.close()
			page.Attach(sess.transport)

			if trace {
				subs := sess.journal.Subscriptions()
				sub := subs.Subscribe()
				defer subs.Unsubscribe(sub.ID)
				go traceEntries(os.Stdout, sub, false)
			}

			if err := page.Start(ctx); err != nil {
				if errors.Is(err, transport.ErrClosed) {
					return err
				}
				slog.Warn("initial connect failed, retrying", "err", err, "delay", sess.delay)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1, syscall.SIGUSR2)
			defer signal.Stop(sigCh)
			for sig := range sigCh {
				switch sig {
				case syscall.SIGUSR1:
					page.Blur()
				case syscall.SIGUSR2:
					if err := page.Focus(ctx); err != nil {
						slog.Warn("resume failed", "err", err)
					}
				default:
					fmt.Fprintln(os.Stderr, "[uibridge] shutting down...")
					err := page.Unload()
					sess.transport.Wait()
					st := sess.transport.Stats()
					slog.Info("session ended", "sent", st.Sent, "dropped", st.Dropped,
						"received", st.Received, "reconnects", st.Reconnects)
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&document, "document", "", "Local HTML file to use instead of fetching the page")
	cmd.Flags().StringVar(&viewport, "viewport", "1280x800", "Window size as WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse the session id stored for this page")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print channel traffic as it happens")
	return cmd
}

// session is a live channel with its journal and session store.
type session struct {
	transport *transport.Transport
	journal   *journal.Journal
	store     store.Store
	delay     time.Duration
}

// openSession builds the transport for pageURL. With resume set, the
// session id saved for the channel URL is restored; new ids are saved as
// the controller assigns them.
func openSession(ctx context.Context, dir string, cfg *config.Config, pageURL string, h transport.Handler, resume bool) (*session, error) {
	wsURL, err := transport.ChannelURL(pageURL)
	if err != nil {
		return nil, err
	}
	delay, err := cfg.Delay()
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(cfg.JournalPath(dir))
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLiteStore(dir)
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var sessionID string
	if resume {
		rec, err := st.SessionGet(ctx, wsURL)
		if err != nil {
			j.Close()
			st.Close()
			return nil, err
		}
		if rec != nil {
			sessionID = rec.SessionID
			slog.Info("resuming session", "url", wsURL, "session", sessionID)
		}
	}

	env := cfg.Environment
	tr := transport.New(transport.Options{
		URL:     wsURL,
		Dialer:  transport.WebSocketDialer{},
		Handler: h,
		Environment: transport.Environment{
			Touch:      env.Touch,
			Direction:  env.Direction,
			Languages:  env.Languages,
			Dark:       env.Dark,
			PixelRatio: env.PixelRatio,
		},
		SessionID: sessionID,
		OnSessionID: func(id string) {
			if err := st.SessionSet(context.Background(), wsURL, id); err != nil {
				slog.Warn("saving session id failed", "err", err)
			}
		},
		ReconnectDelay: delay,
		Recorder:       j,
	})
	return &session{transport: tr, journal: j, store: st, delay: delay}, nil
}

func (s *session) close() {
	s.transport.Close()
	s.transport.Wait()
	if err := s.journal.Close(); err != nil {
		slog.Warn("closing journal failed", "err", err)
	}
	s.store.Close()
}

func loadDocument(path string) (*dom.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return dom.Parse(string(data))
}

// fetchDocument loads the page body.
func fetchDocument(ctx context.Context, pageURL string) (*dom.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return dom.Parse(string(data))
}
