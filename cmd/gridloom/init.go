// Init command: scaffold config and data directories.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/gridloom/internal/sqlite"
	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gridloom storage",
	Long:  "Create configuration and data directories, then initialize the storage backend.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := ensureConfigDir(configDir); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Load data_dir from an existing config.yaml before the flag default
	// kicks in, so re-running init keeps the original location.
	if configDataDir == "" {
		configDataDir = loadDataDirFromConfig(configDir)
	}
	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	if err := writeConfigIfMissing(configFilePath(configDir), dataDir); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Initialize the data directory via Attach then Detach.
	s := sqlite.NewStore()
	if err := s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := s.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Gridloom initialized successfully")
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. Idempotent.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	cfg := configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// loadDataDirFromConfig reads data_dir from an existing config.yaml.
// Returns empty string if the file does not exist or cannot be read.
func loadDataDirFromConfig(configDir string) string {
	data, err := os.ReadFile(configFilePath(configDir))
	if err != nil {
		return ""
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.DataDir
}
