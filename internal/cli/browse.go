package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"confgit.dev/confgit/internal/tui"
)

// newBrowseCmd creates the browse command
func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse configuration documents interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !tui.IsTTY() {
				return fmt.Errorf("browse needs an interactive terminal")
			}

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}

			return tui.RunBrowse(st)
		},
	}

	return cmd
}
