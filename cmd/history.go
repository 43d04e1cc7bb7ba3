package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past questions and answers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "number of entries to show, newest last")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	entries, err := history.NewLog(cfg.HistoryDir, logger).Load(resolveUser())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No history for %s\n", resolveUser())
		return nil
	}

	if flagHistoryLimit > 0 && len(entries) > flagHistoryLimit {
		entries = entries[len(entries)-flagHistoryLimit:]
	}

	for _, e := range entries {
		fmt.Printf("[%s] Q: %s\n", e.Time.Format("2006-01-02 15:04"), e.Question)
		fmt.Printf("           A: %s\n", e.Answer)
		for _, ref := range e.References {
			fmt.Printf("              - %s\n", ref)
		}
	}
	return nil
}
