package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"confgit.dev/confgit/internal/store"
)

// newSchemasCmd creates the schemas command
func newSchemasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas [type]",
		Short: "List schemas, or print one schema document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			schemas := store.NewSchemaStore(st.Client(), app.settings.Paths.Schemas)

			if len(args) == 0 {
				types, err := schemas.List()
				if err != nil {
					return err
				}
				for _, docType := range types {
					fmt.Fprintln(cmd.OutOrStdout(), docType)
				}
				return nil
			}

			raw, err := schemas.Load(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}

	return cmd
}
