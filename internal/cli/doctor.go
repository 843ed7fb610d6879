package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"confgit.dev/confgit/internal/doctor"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// newDoctorCmd creates the doctor command
func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that confgit can reach its repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()

			results := doctor.Run(cmd.Context(), doctor.Options{
				Settings: app.settings,
				Logger:   app.logger.Named("doctor"),
			})

			out := cmd.OutOrStdout()
			for _, result := range results {
				fmt.Fprintf(out, "%s %-14s %s\n", statusMark(result.Status), result.Name, result.Detail)
			}

			if !doctor.Healthy(results) {
				return fmt.Errorf("doctor found failing checks")
			}
			return nil
		},
	}

	return cmd
}

func statusMark(status doctor.Status) string {
	switch status {
	case doctor.StatusOK:
		return okStyle.Render("✓")
	case doctor.StatusWarn:
		return warnStyle.Render("!")
	default:
		return failStyle.Render("✗")
	}
}
