package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/git"
)

// newPutCmd creates the put command
func newPutCmd() *cobra.Command {
	var (
		fingerprint string
		authorSpec  string
	)

	cmd := &cobra.Command{
		Use:   "put <type> [file]",
		Short: "Save a configuration document and publish it",
		Long: `Save a document read from a file, or from stdin when no file is given.
By default the save is based on the currently stored fingerprint, so it
only fails when someone else pushes in between. Pass --fingerprint for a
strict compare-and-swap against a fingerprint obtained earlier.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docType := args[0]
			file := ""
			if len(args) == 2 {
				file = args[1]
			}

			content, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			author, err := parseAuthor(authorSpec)
			if err != nil {
				return err
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

			base := fingerprint
			if !cmd.Flags().Changed("fingerprint") {
				doc, err := st.Load(cmd.Context(), docType)
				switch {
				case err == nil:
					base = doc.Fingerprint
				case errors.Is(err, confgiterrors.ErrNotFound):
					base = ""
				default:
					return err
				}
			}

			commitID, err := st.Save(cmd.Context(), docType, content, base, author)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %s as commit %s\n", docType, commitID)
			return nil
		},
	}

	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Base fingerprint for a strict compare-and-swap save")
	cmd.Flags().StringVar(&authorSpec, "author", "", `Commit author as "Name <email>"`)

	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(file)
}

// parseAuthor accepts "Name <email>" or a bare name.
func parseAuthor(spec string) (git.Author, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return git.Author{}, nil
	}
	open := strings.Index(spec, "<")
	if open < 0 {
		return git.Author{Name: spec}, nil
	}
	if !strings.HasSuffix(spec, ">") {
		return git.Author{}, fmt.Errorf(`author must look like "Name <email>", got %q`, spec)
	}
	return git.Author{
		Name:  strings.TrimSpace(spec[:open]),
		Email: strings.TrimSpace(spec[open+1 : len(spec)-1]),
	}, nil
}
