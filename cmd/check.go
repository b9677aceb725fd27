package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/classify"
	"github.com/zpam/sms-filter/pkg/dataset"
)

var checkModel string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Smoke-test the model on known spam and ham messages",
	Long: `Classify five well-known spam and five well-known ham messages and
verify that at least 60% of each class is labelled correctly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("model") {
			cfg.Model.Path = checkModel
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		svc, err := openService(cfg, cfg.Model.Path, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		report, err := svc.Check(cmd.Context(), classify.KnownMessages)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		pass := color.New(color.FgGreen, color.OpBold).Render("PASS")
		fail := color.New(color.FgRed, color.OpBold).Render("FAIL")
		rule := strings.Repeat(checkRule, 70)

		printCheckCases(out, report.Cases, pass, fail)

		fmt.Fprintf(out, "\n%s\nSummary\n%s\n", rule, rule)
		for _, label := range []dataset.Label{dataset.Spam, dataset.Ham} {
			verdict := pass
			if report.Accuracy(label) < classify.MinCheckAccuracy {
				verdict = fail
			}
			fmt.Fprintf(out, "%-5s %d/%d correct (%.1f%%) %s\n", strings.ToUpper(string(label)),
				report.Correct[label], report.Totals[label], report.Accuracy(label)*100, verdict)
		}

		if !report.Passed() {
			return fmt.Errorf("check failed: each class needs at least %.0f%% correct", classify.MinCheckAccuracy*100)
		}
		fmt.Fprintf(out, "\n🎉 All checks passed\n")
		return nil
	},
}

const checkRule = "═"

// printCheckCases prints cases grouped by expected class. Numbering restarts
// at 1 for each class.
func printCheckCases(out io.Writer, cases []classify.CheckCase, pass, fail string) {
	rule := strings.Repeat(checkRule, 70)
	var current dataset.Label
	n := 0
	for _, c := range cases {
		if c.Expected != current {
			current, n = c.Expected, 0
			fmt.Fprintf(out, "%s\nTesting %s messages\n%s\n", rule, strings.ToUpper(string(current)), rule)
		}
		n++
		status, result := "✓", pass
		if !c.Correct() {
			status, result = "✗", fail
		}
		fmt.Fprintf(out, "\n%s Test %d:\n", status, n)
		fmt.Fprintf(out, "   Message: %s\n", truncate(c.Result.Text, 60))
		fmt.Fprintf(out, "   Prediction: %s\n", strings.ToUpper(string(c.Result.Label)))
		fmt.Fprintf(out, "   Confidence - Spam: %.2f%% | Ham: %.2f%%\n", c.Result.SpamPct, c.Result.HamPct)
		fmt.Fprintf(out, "   Result: %s\n", result)
	}
}

func init() {
	checkCmd.Flags().StringVarP(&checkModel, "model", "m", "", "Model artifact path (overrides config)")
}
