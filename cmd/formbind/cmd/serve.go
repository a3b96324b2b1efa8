package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formbind/components/timezones"
	"github.com/goliatone/go-formbind/pkg/form/browser"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an edit form for every schema",
		Long: `serve starts an HTTP server with one edit form per schema at
/edit/<schema>/<id>, a wizard at /wizard/<schema>/<id> for every schema with
configured panes, an index at /schemas and a time zone search at
/api/timezones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			handler, err := a.routes()
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), handler)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Bool("sessions", false, "keep wizard progress in server side sessions")
	_ = viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("sessions", cmd.Flags().Lookup("sessions"))
	return cmd
}

func (a *app) routes() (http.Handler, error) {
	mux := http.NewServeMux()
	var sessions browser.SessionStore
	if a.cfg.Sessions {
		sessions = browser.NewMemorySessionStore()
	}

	for _, name := range a.names {
		s := a.schemas[name]
		view, err := browser.NewEditView(s, a.content.loader(name), a.editOptions(name)...)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		mux.Handle("/edit/"+name+"/{id}", a.content.serialize(view))

		wiz, ok := a.cfg.wizard(name)
		if !ok {
			continue
		}
		opts := a.editOptions(name)
		if sessions != nil {
			opts = append(opts, browser.WithSessionStore(sessions))
		}
		wizard, err := browser.NewEditWizardView(s, wizardPanes(wiz.Panes), a.content.loader(name), opts...)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		mux.Handle("/wizard/"+name+"/{id}", a.content.serialize(wizard))
	}
	for _, wiz := range a.cfg.Wizards {
		if _, ok := a.schemas[wiz.Schema]; !ok {
			return nil, fmt.Errorf("wizard for unknown schema %q", wiz.Schema)
		}
	}

	mux.Handle("GET /schemas", a.indexHandler())
	if _, err := timezones.RegisterRoutes(mux, "/",
		timezones.WithLogger(a.logger),
		timezones.WithEmptySearchMode(timezones.EmptySearchTop),
	); err != nil {
		return nil, err
	}
	return mux, nil
}

func wizardPanes(panes []PaneConfig) []browser.Pane {
	out := make([]browser.Pane, len(panes))
	for i, p := range panes {
		out[i] = browser.Pane{Label: p.Label, Names: p.Fields}
	}
	return out
}

// indexHandler lists the schemas with their fields and content ids.
func (a *app) indexHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(a.describe(true)); err != nil {
			a.logger.WithError(err).Warn("formbind: write schema index")
		}
	})
}

func (a *app) serve(ctx context.Context, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.logger.WithField("addr", a.cfg.Addr).Info("formbind: listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.logger.Info("formbind: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
