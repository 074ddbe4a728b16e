package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-tagtree/cmd/config"
	"github.com/mattsolo1/grove-tagtree/pkg/tree"
	"github.com/mattsolo1/grove-tagtree/pkg/vault"
)

func NewWatchCmd() *cobra.Command {
	var intervalMS int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the tree live while the vault changes",
		Long: `Watch the vault for changes and reprint the tag tree every time it
actually changes shape. Edits that do not affect any tag or link are
absorbed silently.

Examples:
  tt watch                 # Watch the current directory
  tt watch -V ~/notes      # Watch another vault
  tt watch --interval 500  # Wider debounce window`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			log := config.NewLogger()
			cfg := config.Load(log)
			if intervalMS > 0 {
				cfg.ScanDelay = time.Duration(intervalMS) * time.Millisecond
			}

			v, err := config.OpenVault(cfg, log)
			if err != nil {
				return err
			}
			eng := config.OpenEngine(cfg, v, log)
			defer eng.Close()

			eng.Subscribe(func(root *tree.Node) {
				fmt.Printf("\n[%s]\n", time.Now().Format("15:04:05"))
				printTree(os.Stdout, root, 0, false)
			})

			if err := eng.Rebuild(ctx); err != nil {
				return fmt.Errorf("initial scan: %w", err)
			}

			w, err := v.Watch(func(path string) {
				if path == vault.TagInfoFile {
					eng.NotifyMeta()
					return
				}
				eng.Notify(path)
			})
			if err != nil {
				return fmt.Errorf("watch vault: %w", err)
			}
			defer w.Close()

			fmt.Printf("\nWatching %s (Ctrl-C to stop)\n", v.Root())

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			return nil
		},
	}

	cmd.Flags().IntVar(&intervalMS, "interval", 0, "Debounce window in milliseconds")

	return cmd
}
