package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/apperr"
	"github.com/zpam/sms-filter/pkg/classify"
)

var (
	predictModel string
	predictFile  string
	predictJSON  bool

	predictResetCache bool
)

var predictCmd = &cobra.Command{
	Use:   "predict [message...]",
	Short: "Classify a message as spam or ham",
	Long: `Classify an SMS message with the trained model.

Arguments are joined into one message. Use --file to classify one message per
line (--file - reads stdin).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && predictFile == "" {
			return fmt.Errorf("provide a message or --file")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("model") {
			cfg.Model.Path = predictModel
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

		if predictResetCache {
			if err := svc.ResetCache(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset prediction cache: %w", err)
			}
		}

		var results []classify.Result
		if predictFile != "" {
			messages, err := readMessages(predictFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			results, err = svc.ClassifyBatch(cmd.Context(), messages)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return errors.Wrapf(apperr.ErrEmptyInput, "no messages in %s", predictFile)
			}
		} else {
			r, err := svc.Classify(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			results = []classify.Result{r}
		}

		out := cmd.OutOrStdout()
		if predictJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if predictFile == "" && len(results) == 1 {
				return enc.Encode(results[0])
			}
			return enc.Encode(results)
		}

		for _, r := range results {
			printResult(out, r)
		}
		return nil
	},
}

func printResult(w io.Writer, r classify.Result) {
	if r.IsSpam() {
		fmt.Fprintf(w, "🚨 %s\n", color.New(color.FgRed, color.OpBold).Render("SPAM"))
	} else {
		fmt.Fprintf(w, "✅ %s\n", color.New(color.FgGreen, color.OpBold).Render("HAM"))
	}
	fmt.Fprintf(w, "   Message: %s\n", truncate(r.Text, 60))
	fmt.Fprintf(w, "   Confidence - Spam: %.2f%% | Ham: %.2f%%\n", r.SpamPct, r.HamPct)
}

// readMessages reads one message per line from path, or from stdin for "-"
func readMessages(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open messages file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var messages []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		messages = append(messages, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-3]) + "..."
}

func init() {
	predictCmd.Flags().StringVarP(&predictModel, "model", "m", "", "Model artifact path (overrides config)")
	predictCmd.Flags().StringVarP(&predictFile, "file", "f", "", "Classify one message per line from a file")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print results as JSON")
	predictCmd.Flags().BoolVar(&predictResetCache, "reset-cache", false, "Clear the prediction cache before classifying")
}
