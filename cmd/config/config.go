package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-tagtree/pkg/cache"
	"github.com/mattsolo1/grove-tagtree/pkg/engine"
	"github.com/mattsolo1/grove-tagtree/pkg/models"
	"github.com/mattsolo1/grove-tagtree/pkg/vault"
)

var (
	cfgFile          string
	vaultOverride    string
	logLevelOverride string
)

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tt/config.yaml)")
	cmd.PersistentFlags().StringVarP(&vaultOverride, "vault", "V", "", "Vault directory (default is the current directory)")
	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Log level: debug, info, warn, error")
}

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "tt")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TT")

	defaults := models.DefaultConfig()
	viper.SetDefault("vault_dir", ".")
	viper.SetDefault("cache_db", "")
	viper.SetDefault("no_cache", false)
	viper.SetDefault("log_level", "warn")

	viper.SetDefault("view", string(defaults.View))
	viper.SetDefault("link_direction", string(defaults.LinkDirection))
	viper.SetDefault("custom_tag_key", "")
	viper.SetDefault("target_folders", []string{})
	viper.SetDefault("ignore_folders", []string{})
	viper.SetDefault("ignore_tags", []string{})
	viper.SetDefault("ignore_doc_tags", []string{})
	viper.SetDefault("archive_tags", []string{})
	viper.SetDefault("disable_nested_tags", false)
	viper.SetDefault("disable_narrowing_down", false)
	viper.SetDefault("use_virtual_tag", false)
	viper.SetDefault("display_folder_as_tag", false)
	viper.SetDefault("merge_redundant_combination", false)
	viper.SetDefault("hide_items", string(defaults.HideItems))
	viper.SetDefault("keep_untagged_at_root", false)
	viper.SetDefault("keep_empty_branches", false)
	viper.SetDefault("filter", "")
	viper.SetDefault("sort_type", defaults.SortType)
	viper.SetDefault("sort_type_tag", defaults.SortTypeTag)
	viper.SetDefault("scan_delay", defaults.ScanDelay)

	// A missing config file is fine, every key has a default.
	_ = viper.ReadInConfig()

	// Flag overrides beat file and environment.
	if vaultOverride != "" {
		viper.Set("vault_dir", vaultOverride)
	}
	if logLevelOverride != "" {
		viper.Set("log_level", logLevelOverride)
	}
}

// NewLogger builds the process logger: stderr, warn unless log_level
// says otherwise. Keep it quiet unless there are issues.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	if raw := viper.GetString("log_level"); raw != "" {
		if lvl, err := logrus.ParseLevel(raw); err == nil {
			log.SetLevel(lvl)
		} else {
			log.Warnf("unknown log level %q, staying at warn", raw)
		}
	}
	return log
}

// Load merges file, environment, and flag overrides into the pipeline
// configuration. Unrecognized enum values fall back to their defaults
// with a warning instead of failing the command.
func Load(log *logrus.Logger) models.Config {
	cfg := models.DefaultConfig()

	switch v := models.ViewMode(viper.GetString("view")); v {
	case models.ViewTags, models.ViewLinks:
		cfg.View = v
	case "":
	default:
		log.Warnf("unknown view %q, using %q", v, cfg.View)
	}

	switch d := models.LinkDirection(viper.GetString("link_direction")); d {
	case models.LinkOutgoing, models.LinkIncoming, models.LinkBoth:
		cfg.LinkDirection = d
	case "":
	default:
		log.Warnf("unknown link direction %q, using %q", d, cfg.LinkDirection)
	}

	if h := models.HideMode(viper.GetString("hide_items")); h != "" {
		// Invalid modes behave like NONE downstream; no need to fail here.
		cfg.HideItems = h
	}

	cfg.CustomTagKey = viper.GetString("custom_tag_key")
	cfg.TargetFolders = viper.GetStringSlice("target_folders")
	cfg.IgnoreFolders = viper.GetStringSlice("ignore_folders")
	cfg.IgnoreTags = viper.GetStringSlice("ignore_tags")
	cfg.IgnoreDocTags = viper.GetStringSlice("ignore_doc_tags")
	cfg.ArchiveTags = viper.GetStringSlice("archive_tags")
	cfg.DisableNestedTags = viper.GetBool("disable_nested_tags")
	cfg.DisableNarrowingDown = viper.GetBool("disable_narrowing_down")
	cfg.UseVirtualTag = viper.GetBool("use_virtual_tag")
	cfg.DisplayFolderAsTag = viper.GetBool("display_folder_as_tag")
	cfg.MergeRedundantCombination = viper.GetBool("merge_redundant_combination")
	cfg.KeepUntaggedAtRoot = viper.GetBool("keep_untagged_at_root")
	cfg.KeepEmptyBranches = viper.GetBool("keep_empty_branches")
	cfg.Filter = viper.GetString("filter")
	cfg.SortType = viper.GetString("sort_type")
	cfg.SortTypeTag = viper.GetString("sort_type_tag")

	if d := viper.GetDuration("scan_delay"); d > 0 {
		cfg.ScanDelay = d
	}

	return cfg
}

// OpenVault opens the configured vault directory.
func OpenVault(cfg models.Config, log *logrus.Logger) (*vault.Vault, error) {
	dir := viper.GetString("vault_dir")
	v, err := vault.New(dir, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open vault %s: %w", dir, err)
	}
	return v, nil
}

// OpenEngine wires the pipeline over a vault: persistent fact store
// (unless no_cache), fact cache, engine. A store that fails to open
// degrades to a memory-only cache rather than aborting the command.
func OpenEngine(cfg models.Config, v *vault.Vault, log *logrus.Logger) *engine.Engine {
	var store *cache.Store
	if !viper.GetBool("no_cache") {
		dbPath := viper.GetString("cache_db")
		if dbPath == "" {
			dbPath = filepath.Join(v.Root(), ".tt", "facts.db")
		}
		s, err := cache.OpenStore(dbPath)
		if err != nil {
			log.Warnf("fact store %s unavailable, running in memory: %v", dbPath, err)
		} else {
			store = s
		}
	}

	return engine.New(cfg, cache.New(cfg, store, log), v, v, log)
}
