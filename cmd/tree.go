package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-tagtree/cmd/config"
	"github.com/mattsolo1/grove-tagtree/pkg/tree"
)

func NewTreeCmd() *cobra.Command {
	var (
		treeFilter string
		treeJSON   bool
		showHidden bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Build the tag tree once and print it",
		Long: `Build the tag tree from the vault and print it.

Examples:
  tt tree                      # Indented tree of the current directory
  tt tree -V ~/notes           # Another vault
  tt tree --filter "#project"  # Only items matching the query
  tt tree --json               # Full tree as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			log := config.NewLogger()
			cfg := config.Load(log)
			if treeFilter != "" {
				cfg.Filter = treeFilter
			}

			v, err := config.OpenVault(cfg, log)
			if err != nil {
				return err
			}
			eng := config.OpenEngine(cfg, v, log)
			defer eng.Close()

			if err := eng.Rebuild(ctx); err != nil {
				return fmt.Errorf("build tree: %w", err)
			}

			if treeJSON {
				data, err := json.MarshalIndent(eng.Tree(), "", "  ")
				if err != nil {
					return fmt.Errorf("marshal tree: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printTree(os.Stdout, eng.Tree(), 0, showHidden)
			return nil
		},
	}

	cmd.Flags().StringVarP(&treeFilter, "filter", "f", "", "Only include items matching this query")
	cmd.Flags().BoolVar(&treeJSON, "json", false, "Output the tree as JSON")
	cmd.Flags().BoolVar(&showHidden, "show-hidden", false, "Print nodes the hide mode folds away")

	return cmd
}

// printTree writes the indented text rendering. Hidden nodes are
// folded: their items and children surface at the parent's depth.
func printTree(w io.Writer, n *tree.Node, depth int, showHidden bool) {
	for _, child := range n.Children {
		if child.Hidden && !showHidden {
			printNodeItems(w, child, depth)
			printTree(w, child, depth, showHidden)
			continue
		}
		fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), child.Label, child.ItemCount)
		printNodeItems(w, child, depth+1)
		printTree(w, child, depth+1, showHidden)
	}
}

func printNodeItems(w io.Writer, n *tree.Node, depth int) {
	for _, item := range n.Items {
		fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", depth), item.DisplayName)
	}
}
