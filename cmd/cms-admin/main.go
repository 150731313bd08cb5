// cms-admin is an admin console for the content collections of a CMS backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/command"
	"github.com/n1rna/cms-admin/internal/config"
	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/resource"
)

var (
	version     = "dev"
	apiURL      string
	globalFlags = struct {
		debug bool
	}{}
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "cms-admin",
		Short: "cms-admin - Admin console for CMS content",
		Long: `cms-admin manages the content collections of a CMS backend:
jobs, admit cards, results, answer keys, old papers, books, blogs and web stories.
Use the subcommands for scripting, or 'cms-admin ui' for the dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration from file and environment
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Override the backend if specified via flag
			if apiURL != "" {
				cfg.BaseURL = apiURL
				// Re-validate after override
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}

			level := cfg.LogLevel
			if globalFlags.debug {
				level = "debug"
			}
			if err := logger.Configure(level, ""); err != nil {
				return err
			}

			reg := resource.Builtin()
			if cfg.ResourcesFile != "" {
				if reg, err = resource.Load(cfg.ResourcesFile); err != nil {
					return err
				}
			}

			client := api.ClientFromConfig(cfg)
			logger.Debug("backend %s, %d content types", client.BaseURL(), len(reg.All()))

			// Store in command context
			ctx := command.WithConfig(cmd.Context(), cfg)
			ctx = command.WithRegistry(ctx, reg)
			ctx = command.WithClient(ctx, client)
			cmd.SetContext(ctx)
			return nil
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"Backend origin (default: $CMS_ADMIN_API_URL or http://localhost:5000)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.debug, "debug", false, "Enable debug output")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "global",
		Title: "Global Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "records",
		Title: "Record Management:",
	})

	// Add commands organized by groups
	rootCmd.AddCommand(
		command.NewUICommand("global"),        // Terminal user interface
		command.NewResourcesCommand("global"), // Content types
		command.NewSummaryCommand("global"),   // Record counts
	)
	rootCmd.AddCommand(command.NewRecordsCommands("records")...)
	rootCmd.AddCommand(
		command.NewEditCommand("records"),   // Edit in $EDITOR
		command.NewExportCommand("records"), // Spreadsheet export
	)

	// Enable version flag
	rootCmd.SetVersionTemplate("cms-admin version {{.Version}}\n")

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
