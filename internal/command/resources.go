package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewResourcesCommand(groupId string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resources",
		Short:   "List the content types",
		Args:    cobra.NoArgs,
		GroupID: groupId,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := GetRegistry(cmd.Context())
			if reg == nil {
				return fmt.Errorf("resource registry not initialized")
			}

			format, _ := cmd.Flags().GetString("format")
			printer, err := newPrinter(cmd, format, false)
			if err != nil {
				return err
			}
			return printer.PrintResources(reg.All())
		},
	}

	cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")

	return cmd
}
