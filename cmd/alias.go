package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-tagtree/cmd/config"
	"github.com/mattsolo1/grove-tagtree/pkg/models"
	"github.com/mattsolo1/grove-tagtree/pkg/vault"
)

func NewAliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Inspect and edit tag display metadata",
		Long: `Inspect and edit the per-vault tag metadata sidecar. Aliases change
how a tag is labeled, redirects substitute one tag for another during
resolution, and pinned tags sort before their siblings.

Examples:
  tt alias list
  tt alias set project/backlog Backlog
  tt alias redirect todo project/backlog
  tt alias pin project
  tt alias rm todo`,
	}

	cmd.AddCommand(
		newAliasListCmd(),
		newAliasSetCmd(),
		newAliasRedirectCmd(),
		newAliasPinCmd(),
		newAliasUnpinCmd(),
		newAliasMarkCmd(),
		newAliasRmCmd(),
	)

	return cmd
}

func newAliasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tag metadata entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openMetaVault()
			if err != nil {
				return err
			}

			meta := v.LoadTagInfo()
			if len(meta) == 0 {
				fmt.Println("No tag metadata defined.")
				return nil
			}

			names := make([]string, 0, len(meta))
			for name := range meta {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tALIAS\tREDIRECT\tPINNED\tMARK")
			for _, name := range names {
				m := meta[name]
				pinned := ""
				if m.Pinned {
					pinned = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, m.Alias, m.Redirect, pinned, m.MarkStyle)
			}
			return w.Flush()
		},
	}
}

func newAliasSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set TAG ALIAS",
		Short: "Set the display label for a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTagMeta(args[0], func(m *models.TagMeta) {
				m.Alias = args[1]
			})
		},
	}
}

func newAliasRedirectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redirect TAG TARGET",
		Short: "Substitute TARGET for TAG during resolution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTagMeta(args[0], func(m *models.TagMeta) {
				m.Redirect = cleanTagArg(args[1])
			})
		},
	}
}

func newAliasPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin TAG",
		Short: "Order a tag before its unpinned siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTagMeta(args[0], func(m *models.TagMeta) {
				m.Pinned = true
			})
		},
	}
}

func newAliasUnpinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin TAG",
		Short: "Clear a tag's pinned flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTagMeta(args[0], func(m *models.TagMeta) {
				m.Pinned = false
			})
		},
	}
}

func newAliasMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark TAG STYLE",
		Short: "Set the display mark style for a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTagMeta(args[0], func(m *models.TagMeta) {
				m.MarkStyle = args[1]
			})
		},
	}
}

func newAliasRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm TAG",
		Short: "Remove all metadata for a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openMetaVault()
			if err != nil {
				return err
			}

			meta := v.LoadTagInfo()
			key, ok := findMetaKey(meta, cleanTagArg(args[0]))
			if !ok {
				return fmt.Errorf("no metadata for tag %s", args[0])
			}
			delete(meta, key)

			if err := v.SaveTagInfo(meta); err != nil {
				return fmt.Errorf("save tag metadata: %w", err)
			}
			fmt.Printf("Removed metadata for #%s\n", key)
			return nil
		},
	}
}

func openMetaVault() (*vault.Vault, error) {
	log := config.NewLogger()
	return config.OpenVault(config.Load(log), log)
}

// updateTagMeta applies one mutation to a tag's sidecar entry and
// writes the sidecar back. Tags match case-insensitively against
// existing entries so "Project" and "project" stay one record.
func updateTagMeta(tagArg string, mutate func(*models.TagMeta)) error {
	v, err := openMetaVault()
	if err != nil {
		return err
	}

	tag := cleanTagArg(tagArg)
	if tag == "" {
		return fmt.Errorf("empty tag name")
	}

	meta := v.LoadTagInfo()
	key, ok := findMetaKey(meta, tag)
	if !ok {
		key = tag
	}

	entry := meta[key]
	mutate(&entry)
	meta[key] = entry

	if err := v.SaveTagInfo(meta); err != nil {
		return fmt.Errorf("save tag metadata: %w", err)
	}
	fmt.Printf("Updated #%s\n", key)
	return nil
}

func findMetaKey(meta map[string]models.TagMeta, tag string) (string, bool) {
	for key := range meta {
		if strings.EqualFold(key, tag) {
			return key, true
		}
	}
	return "", false
}

func cleanTagArg(arg string) string {
	return strings.Trim(strings.TrimPrefix(strings.TrimSpace(arg), models.TagMarker), models.TagSeparator)
}
