package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/output"
	"github.com/n1rna/cms-admin/internal/resource"
)

// summaryConcurrency bounds the list requests in flight at once
const summaryConcurrency = 4

func NewSummaryCommand(groupId string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "summary",
		Short:   "Count the records of every content type",
		Args:    cobra.NoArgs,
		GroupID: groupId,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := GetRegistry(cmd.Context())
			client := GetClient(cmd.Context())
			if reg == nil || client == nil {
				return fmt.Errorf("API client not initialized")
			}

			format, _ := cmd.Flags().GetString("format")
			printer, err := newPrinter(cmd, format, false)
			if err != nil {
				return err
			}

			counts := countRecords(cmd.Context(), client, reg.All())
			if err := printer.PrintSummary(counts); err != nil {
				return err
			}

			failed := 0
			for _, c := range counts {
				if c.Error != "" {
					failed++
				}
			}
			if failed == len(counts) && failed > 0 {
				return fmt.Errorf("backend unreachable at %s", client.BaseURL())
			}
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")

	return cmd
}

// countRecords lists every content type concurrently. A failing collection
// is reported in its own line and does not stop the others.
func countRecords(ctx context.Context, client *api.Client, defs []*resource.Definition) []output.Count {
	counts := make([]output.Count, len(defs))

	var g errgroup.Group
	g.SetLimit(summaryConcurrency)
	for i, def := range defs {
		g.Go(func() error {
			counts[i] = output.Count{Resource: def.Key, Title: def.Title}
			records, err := client.Collection(def.Path).List(ctx)
			if err != nil {
				logger.Error("summary: %s: %v", def.Key, err)
				counts[i].Error = err.Error()
				return nil
			}
			counts[i].Records = len(records)
			return nil
		})
	}
	_ = g.Wait()

	return counts
}
