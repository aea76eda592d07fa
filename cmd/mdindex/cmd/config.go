package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/mdindex/configs"
	"github.com/Aman-CERP/mdindex/internal/config"
	"github.com/Aman-CERP/mdindex/internal/output"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mdindex configuration",
		Long: `Show and create mdindex configuration files.

Configuration is applied in order of increasing precedence:
  1. Built-in defaults
  2. User config (~/.config/mdindex/config.yaml)
  3. Project config (.mdindex.yaml in the workspace root)
  4. Environment variables (MDINDEX_*)

Kinds and path rules are read from the project config only.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool
	var source string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show configuration",
		Long: `Show configuration from a given source.

Sources:
  merged    Effective configuration (default)
  project   Project config file only
  user      User config file only
  defaults  Built-in defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, project, user, defaults")

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	var user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create .mdindex.yaml in the workspace root, or the user configuration
with --user.

An existing file is left alone unless --force is given; it is then backed up
next to the original before the template replaces it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user {
				return runConfigInit(cmd, config.GetUserConfigPath(), configs.UserConfigTemplate, force)
			}
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			path := config.ProjectFile(root)
			if path == "" {
				path = filepath.Join(root, config.ProjectFileName)
			}
			return runConfigInit(cmd, path, configs.ProjectConfigTemplate, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Create the user configuration instead")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
				return err
			}
			root, err := resolveRoot(nil)
			if err != nil {
				return err
			}
			path := config.ProjectFile(root)
			if path == "" {
				path = filepath.Join(root, config.ProjectFileName)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "Print the user configuration path")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path, template string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	var backupPath string
	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to replace it with the template (a backup is kept)")
			return nil
		}
		backupPath, err = config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(template), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	if backupPath != "" {
		out.Statusf("💾", "Backup: %s", backupPath)
	}
	out.Status("💡", "Edit kinds and rules, then run 'mdindex scan'")
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		root, err := resolveRoot(nil)
		if err != nil {
			return err
		}
		cfg, err = config.Load(root)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "project":
		root, err := resolveRoot(nil)
		if err != nil {
			return err
		}
		path := config.ProjectFile(root)
		if path == "" {
			out.Warning("No project configuration file found")
			out.Statusf("📁", "Expected at: %s", filepath.Join(root, config.ProjectFileName))
			out.Status("💡", "Run 'mdindex config init' to create one")
			return nil
		}
		cfg, err = readConfigFile(path)
		if err != nil {
			return err
		}
		sourceDesc = fmt.Sprintf("project (%s)", path)

	case "user":
		path := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", path)
			out.Status("💡", "Run 'mdindex config init --user' to create one")
			return nil
		}
		var err error
		cfg, err = readConfigFile(path)
		if err != nil {
			return err
		}
		sourceDesc = fmt.Sprintf("user (%s)", path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, project, user, defaults)", source)
	}

	if jsonOutput {
		return out.JSON(cfg)
	}

	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}

// readConfigFile reads one file as written, without defaults.
func readConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := &config.Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
