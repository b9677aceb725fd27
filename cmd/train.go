package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/training"
)

var (
	trainDataset  string
	trainModel    string
	trainTestSize float64
	trainSeed     uint64
	trainAlpha    float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the spam classifier from a labeled CSV",
	Long: `Train the TF-IDF + Multinomial Naive Bayes classifier.

The dataset is a headerless CSV of label,text rows (label spam or ham). It is
split into stratified train/test parts, the model is fitted on the train part,
evaluated on the test part and saved as a single artifact file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Flags override config
		flags := cmd.Flags()
		if flags.Changed("dataset") {
			cfg.Dataset.Path = trainDataset
		}
		if flags.Changed("model") {
			cfg.Model.Path = trainModel
		}
		if flags.Changed("test-size") {
			cfg.Split.TestFraction = trainTestSize
		}
		if flags.Changed("seed") {
			cfg.Split.Seed = trainSeed
		}
		if flags.Changed("alpha") {
			cfg.Classifier.Alpha = trainAlpha
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		opts := training.OptionsFromConfig(cfg)
		opts.Out = cmd.OutOrStdout()
		opts.Logger = logger

		_, err = training.Run(opts)
		return err
	},
}

func init() {
	defaults := training.DefaultOptions()
	trainCmd.Flags().StringVarP(&trainDataset, "dataset", "d", defaults.DatasetPath, "Labeled CSV dataset (overrides config)")
	trainCmd.Flags().StringVarP(&trainModel, "model", "m", defaults.ModelPath, "Where to write the model artifact (overrides config)")
	trainCmd.Flags().Float64Var(&trainTestSize, "test-size", defaults.TestFraction, "Held-out fraction for evaluation")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", defaults.Seed, "Split seed")
	trainCmd.Flags().Float64Var(&trainAlpha, "alpha", defaults.Alpha, "Naive Bayes additive smoothing")
}
