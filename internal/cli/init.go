package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

const configTemplate = `# confgit configuration
repository:
  url: %q
  branch: %q
  local: %q

listen: %q

validation:
  server: %t
`

// isInteractive checks if we're in an interactive terminal
func isInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a confgit config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return fmt.Errorf("init needs an interactive terminal; write %s by hand instead", output)
			}

			var repoURL string
			prompt := &survey.Input{
				Message: "Git repository URL",
			}
			if err := survey.AskOne(prompt, &repoURL, survey.WithValidator(survey.Required)); err != nil {
				return fmt.Errorf("canceled")
			}

			branch := "main"
			if err := survey.AskOne(&survey.Input{
				Message: "Branch",
				Default: branch,
			}, &branch); err != nil {
				return fmt.Errorf("canceled")
			}

			local := filepath.Join(os.TempDir(), "confgit", "repo")
			if err := survey.AskOne(&survey.Input{
				Message: "Local clone path",
				Default: local,
			}, &local); err != nil {
				return fmt.Errorf("canceled")
			}

			listen := ":8080"
			if err := survey.AskOne(&survey.Input{
				Message: "HTTP listen address",
				Default: listen,
			}, &listen); err != nil {
				return fmt.Errorf("canceled")
			}

			validate := true
			if err := survey.AskOne(&survey.Confirm{
				Message: "Validate documents against schemas on save?",
				Default: true,
			}, &validate); err != nil {
				return fmt.Errorf("canceled")
			}

			if _, err := os.Stat(output); err == nil {
				overwrite := false
				if err := survey.AskOne(&survey.Confirm{
					Message: fmt.Sprintf("%s exists, overwrite?", output),
					Default: false,
				}, &overwrite); err != nil || !overwrite {
					return fmt.Errorf("canceled")
				}
			}

			content := fmt.Sprintf(configTemplate, repoURL, branch, local, listen, validate)
			if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s\n", output)
			fmt.Fprintf(out, "start the server with: confgit serve --config %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "confgit.yaml", "Where to write the config file")

	return cmd
}
