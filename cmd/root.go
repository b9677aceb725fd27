package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/cache"
	"github.com/zpam/sms-filter/pkg/classify"
	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "zsms",
	Short: "ZSMS - SMS spam classifier",
	Long: `ZSMS labels SMS messages as spam or ham with a TF-IDF + Multinomial
Naive Bayes model trained from a labeled CSV file.

Train once with 'zsms train', then classify with 'zsms predict'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ZSMS - SMS spam classifier")
		fmt.Println("Use 'zsms --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads --config (or the defaults) with ZSMS_* overrides applied
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// openService loads the model at modelPath and puts the configured cache in
// front of it. An unreachable cache is logged and skipped.
func openService(cfg *config.Config, modelPath string, logger *zap.Logger, opts ...classify.Option) (*classify.Service, error) {
	m, err := model.Cached(modelPath)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn("prediction cache disabled", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
		c = cache.Nop{}
	}

	opts = append([]classify.Option{classify.WithCache(c), classify.WithLogger(logger)}, opts...)
	return classify.NewService(m, opts...), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(configCmd)
}
