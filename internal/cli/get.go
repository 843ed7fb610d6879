package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"confgit.dev/confgit/internal/yamljson"
)

// newGetCmd creates the get command
func newGetCmd() *cobra.Command {
	var (
		asJSON          bool
		showFingerprint bool
	)

	cmd := &cobra.Command{
		Use:   "get <type>",
		Short: "Print a configuration document",
		Args:  cobra.ExactArgs(1),
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
			doc, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if showFingerprint {
				fmt.Fprintln(cmd.OutOrStdout(), doc.Fingerprint)
				return nil
			}

			out := doc.Bytes
			if asJSON {
				if out, err = yamljson.ToJSON(doc.Bytes); err != nil {
					return err
				}
				out = append(out, '\n')
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the document as JSON instead of YAML")
	cmd.Flags().BoolVar(&showFingerprint, "fingerprint", false, "Print the document's commit fingerprint instead of its content")

	return cmd
}
