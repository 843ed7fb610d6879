package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"confgit.dev/confgit/internal/config"
	"confgit.dev/confgit/internal/git"
	"confgit.dev/confgit/internal/logging"
	"confgit.dev/confgit/internal/store"
)

// app bundles the loaded settings and logger every command starts from.
type app struct {
	settings *config.Settings
	logger   *zap.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(settings.Log)
	if err != nil {
		return nil, err
	}
	return &app{settings: settings, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// newClient builds the repository client from the settings.
func (a *app) newClient() (*git.Client, error) {
	if err := a.settings.Validate(); err != nil {
		return nil, err
	}
	return git.NewClient(git.Options{
		URL:       a.settings.Repository.URL,
		Remote:    a.settings.Repository.Remote,
		Branch:    a.settings.Repository.Branch,
		LocalPath: a.settings.Repository.Local,
		Timeout:   a.settings.Repository.Timeout,
		Logger:    a.logger.Named("git"),
	})
}

// openStore makes the local clone ready and wraps it in a document store.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	client, err := a.newClient()
	if err != nil {
		return nil, err
	}
	st, err := store.New(store.Options{
		Client:    client,
		ConfigDir: a.settings.Paths.Config,
		Extension: a.settings.Extension,
		Logger:    a.logger.Named("store"),
	})
	if err != nil {
		return nil, err
	}
	if err := st.Ready(ctx); err != nil {
		return nil, err
	}
	return st, nil
}
