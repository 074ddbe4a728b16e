package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-tagtree/cmd"
	"github.com/mattsolo1/grove-tagtree/cmd/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tt",
		Short:         "Synthesize a live tag tree from a markdown vault",
		Long: `tt reads a vault of markdown documents, extracts their tags and links,
and synthesizes a deduplicated hierarchical tree over them. The tree can
be printed once or kept live while the vault changes.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	config.AddGlobalFlags(rootCmd)
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		config.InitConfig()
	}

	rootCmd.AddCommand(cmd.NewTreeCmd())
	rootCmd.AddCommand(cmd.NewItemsCmd())
	rootCmd.AddCommand(cmd.NewWatchCmd())
	rootCmd.AddCommand(cmd.NewAliasCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
