// Root command for the gridloom CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridloom/internal/paths"
	"github.com/mesh-intelligence/gridloom/internal/sqlite"
	"github.com/mesh-intelligence/gridloom/pkg/gridloom"
	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// configDataDir holds the data_dir value loaded from config.yaml. Set by
// PersistentPreRunE so all subcommands can use it.
var configDataDir string

// store is the global attached store, initialized by PersistentPreRunE and
// released by PersistentPostRunE.
var store types.Store

var rootCmd = &cobra.Command{
	Use:     "gridloom",
	Short:   "Gridloom is a local-first data grid",
	Version: gridloom.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version and init manage their own lifecycle.
		if cmd.Name() == "version" || cmd.Name() == "init" {
			return nil
		}
		return attachStore()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return detachStore()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.gridloom-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(columnCmd)
	rootCmd.AddCommand(rowCmd)
	rootCmd.AddCommand(cellCmd)
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(seedCmd)
}

// attachStore loads config.yaml, resolves the data directory, and attaches
// the global store.
func attachStore() error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configDataDir = cfg.GetString(cfgKeyDataDir)

	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	s := sqlite.NewStore()
	if err := s.Attach(types.Config{Backend: cfg.GetString(cfgKeyBackend), DataDir: dataDir}); err != nil {
		return fmt.Errorf("attach store: %w", err)
	}
	store = s
	return nil
}

// detachStore releases the global store.
func detachStore() error {
	if store != nil {
		return store.Detach()
	}
	return nil
}

// resolveDataDir returns the data directory following the precedence:
// --data-dir flag > config.yaml data_dir > GRIDLOOM_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > GRIDLOOM_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
