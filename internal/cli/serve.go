package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"confgit.dev/confgit/internal/server"
	"confgit.dev/confgit/internal/store"
	"confgit.dev/confgit/internal/validate"
)

// newServeCmd creates the serve command
func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the configuration HTTP server",
		Long: `Clone or sync the configuration repository, then serve its documents
over HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			schemas := store.NewSchemaStore(st.Client(), app.settings.Paths.Schemas)
			validator := validate.New(schemas, app.logger.Named("validate"))

			srv, err := server.New(server.Options{
				Store:        st,
				Schemas:      schemas,
				Validator:    validator,
				Users:        app.settings.Users,
				ValidateDocs: app.settings.Validation.Server,
				Logger:       app.logger.Named("http"),
			})
			if err != nil {
				return err
			}

			if listen == "" {
				listen = app.settings.Listen
			}
			httpServer := &http.Server{
				Addr:              listen,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.logger.Info("listening", zap.String("addr", listen))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			app.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides the configuration)")

	return cmd
}
