package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the local clone with the remote",
		Long: `Fetch the remote branch and merge it into the local clone. Conflicting
local commits are discarded in favor of the remote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			result, err := st.Resync(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sync result: %s\n", result)
			return nil
		},
	}
}
