package cmd

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/dataset"
)

var (
	datasetPath    string
	datasetSamples int
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Show an overview of the training dataset",
	Long:  `Display class counts, class shares, message length statistics and sample rows`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dataset") {
			cfg.Dataset.Path = datasetPath
		}

		ds, err := dataset.Load(cfg.Dataset.Path)
		if err != nil {
			return err
		}
		examples := ds.Examples

		out := cmd.OutOrStdout()
		summary := dataset.Summarize(examples)

		fmt.Fprintf(out, "📊 Dataset Overview: %s\n", cfg.Dataset.Path)
		fmt.Fprintf(out, "📧 Total messages: %d\n\n", summary.Total)

		stats := tablewriter.NewWriter(out)
		stats.SetHeader([]string{"Class", "Count", "Share", "Avg Length", "Median Length", "Max Length"})
		stats.SetAlignment(tablewriter.ALIGN_RIGHT)
		for _, c := range summary.Classes {
			stats.Append([]string{
				string(c.Label),
				fmt.Sprint(c.Count),
				fmt.Sprintf("%.1f%%", c.Share*100),
				fmt.Sprintf("%.0f", c.MeanLength),
				fmt.Sprintf("%.0f", c.MedianLength),
				fmt.Sprint(c.MaxLength),
			})
		}
		stats.Render()

		if datasetSamples <= 0 {
			return nil
		}
		fmt.Fprintf(out, "\n📝 Sample messages:\n")
		samples := tablewriter.NewWriter(out)
		samples.SetHeader([]string{"Label", "Message"})
		samples.SetAutoWrapText(false)
		for _, ex := range examples[:min(datasetSamples, len(examples))] {
			samples.Append([]string{strings.ToUpper(string(ex.Label)), truncate(ex.Text, 70)})
		}
		samples.Render()
		return nil
	},
}

func init() {
	datasetCmd.Flags().StringVarP(&datasetPath, "dataset", "d", dataset.DefaultPath, "Labeled CSV dataset (overrides config)")
	datasetCmd.Flags().IntVarP(&datasetSamples, "samples", "n", 10, "Number of sample rows to show")
}
