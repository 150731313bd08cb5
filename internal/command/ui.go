package command

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/tui"
)

// NewUICommand creates the UI command
func NewUICommand(groupId string) *cobra.Command {
	return &cobra.Command{
		Use:     "ui",
		Short:   "Launch interactive terminal interface",
		Long:    "Launch the cms-admin dashboard for browsing, searching and editing every content type.",
		Args:    cobra.NoArgs,
		RunE:    runUI,
		GroupID: groupId,
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg := GetConfig(cmd.Context())
	reg := GetRegistry(cmd.Context())
	client := GetClient(cmd.Context())
	if cfg == nil || reg == nil || client == nil {
		return fmt.Errorf("API client not initialized")
	}

	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return fmt.Errorf("ui needs an interactive terminal; use list, create, update or delete instead")
	}

	// the dashboard owns the terminal, so logs go to the log file or nowhere
	if cfg.LogFile != "" {
		debug, _ := cmd.Flags().GetBool("debug")
		if err := logger.Configure(dashboardLogLevel(cfg.LogLevel, debug), cfg.LogFile); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		logger.Discard()
	}
	logger.Info("dashboard started against %s", client.BaseURL())

	model := tui.NewModel(cmd.Context(), tui.Options{
		Registry:  reg,
		Remotes:   tui.ClientRemotes(client),
		ExportDir: cfg.ExportDir,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// dashboardLogLevel applies the --debug override to the configured level
func dashboardLogLevel(level string, debug bool) string {
	if debug {
		return "debug"
	}
	return level
}
