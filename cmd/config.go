package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and manage ZSMS configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a default configuration file with all options`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) > 0 {
			path = args[0]
		}

		// Check if file already exists
		if _, err := os.Stat(path); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}
		}

		if err := config.DefaultConfig().SaveConfig(path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration file generated: %s\n", path)
		fmt.Fprintf(out, "📝 Edit the file to change dataset, split, smoothing, cache or logging settings\n")
		fmt.Fprintf(out, "🚀 Use 'zsms train --config %s' to use the configuration\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and logical errors`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration is valid: %s\n", args[0])

		if warnings := validateConfigLogic(cfg); len(warnings) > 0 {
			fmt.Fprintf(out, "\n⚠️  Warnings:\n")
			for _, warning := range warnings {
				fmt.Fprintf(out, "  - %s\n", warning)
			}
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, including ZSMS_* environment overrides`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		out := cmd.OutOrStdout()
		if path != "" {
			fmt.Fprintf(out, "Configuration: %s\n\n", path)
		} else {
			fmt.Fprintf(out, "Default Configuration:\n\n")
		}

		fmt.Fprintf(out, "📁 Data:\n")
		fmt.Fprintf(out, "  Dataset: %s\n", cfg.Dataset.Path)
		fmt.Fprintf(out, "  Model: %s\n", cfg.Model.Path)

		fmt.Fprintf(out, "\n🧠 Training:\n")
		fmt.Fprintf(out, "  Test fraction: %.2f\n", cfg.Split.TestFraction)
		fmt.Fprintf(out, "  Seed: %d\n", cfg.Split.Seed)
		fmt.Fprintf(out, "  Min token length: %d\n", cfg.Features.MinTokenLength)
		fmt.Fprintf(out, "  Alpha: %.2f\n", cfg.Classifier.Alpha)

		fmt.Fprintf(out, "\n🗄️  Cache:\n")
		fmt.Fprintf(out, "  Backend: %s\n", cfg.Cache.Backend)
		switch cfg.Cache.Backend {
		case "memory":
			fmt.Fprintf(out, "  Size: %d\n", cfg.Cache.Size)
		case "redis":
			fmt.Fprintf(out, "  Redis: %s (db %d, prefix %s, ttl %s)\n",
				cfg.Cache.Redis.RedisURL, cfg.Cache.Redis.DatabaseNum, cfg.Cache.Redis.KeyPrefix, cfg.Cache.Redis.TTL)
		}

		fmt.Fprintf(out, "\n📝 Logging:\n")
		fmt.Fprintf(out, "  Level: %s\n", cfg.Logging.Level)
		fmt.Fprintf(out, "  Format: %s\n", cfg.Logging.Format)
		if cfg.Logging.File != "" {
			fmt.Fprintf(out, "  File: %s\n", cfg.Logging.File)
		}
		return nil
	},
}

// validateConfigLogic reports settings that are valid but probably unintended
func validateConfigLogic(cfg *config.Config) []string {
	var warnings []string

	if cfg.Split.TestFraction > 0.5 {
		warnings = append(warnings, "More than half of the dataset is held out for testing")
	}
	if cfg.Split.TestFraction < 0.05 {
		warnings = append(warnings, "Test fraction below 5% gives a noisy accuracy estimate")
	}
	if cfg.Classifier.Alpha > 10 {
		warnings = append(warnings, "Large alpha flattens term likelihoods towards the class priors")
	}
	if cfg.Features.MinTokenLength > 4 {
		warnings = append(warnings, "High min token length drops short words such as 'win' and 'txt'")
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.Redis.TTL == "" {
		warnings = append(warnings, "Redis cache entries never expire")
	}
	if _, err := os.Stat(cfg.Dataset.Path); err != nil {
		warnings = append(warnings, fmt.Sprintf("Dataset %s does not exist yet", cfg.Dataset.Path))
	}
	return warnings
}

func init() {
	// Add subcommands
	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	// Add flags
	configGenCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
