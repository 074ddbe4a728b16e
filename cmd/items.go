package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-tagtree/cmd/config"
)

func NewItemsCmd() *cobra.Command {
	var (
		itemsFilter string
		itemsJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Print the flat ordered item list",
		Long: `Print every document in the vault as a flat list, one line per
document, in the configured item order.

Examples:
  tt items                   # All documents with their tags
  tt items --filter "-draft" # Everything not tagged draft
  tt items --json            # Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			log := config.NewLogger()
			cfg := config.Load(log)
			if itemsFilter != "" {
				cfg.Filter = itemsFilter
			}

			v, err := config.OpenVault(cfg, log)
			if err != nil {
				return err
			}
			eng := config.OpenEngine(cfg, v, log)
			defer eng.Close()

			if err := eng.Rebuild(ctx); err != nil {
				return fmt.Errorf("list items: %w", err)
			}

			items := eng.Items()
			if itemsJSON {
				data, err := json.MarshalIndent(items, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal items: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(items) == 0 {
				fmt.Println("No documents found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tTITLE\tTAGS")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", item.Path, item.DisplayName, strings.Join(item.Tags, ", "))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&itemsFilter, "filter", "f", "", "Only include items matching this query")
	cmd.Flags().BoolVar(&itemsJSON, "json", false, "Output items as JSON")

	return cmd
}
