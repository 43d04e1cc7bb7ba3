package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragnova/ragnova/internal/answer"
)

var (
	flagTopK        int
	flagExpertise   string
	flagUsePrevious bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVar(&flagTopK, "top-k", 0, "number of context chunks (default from config)")
	askCmd.Flags().StringVar(&flagExpertise, "expertise", "", "answer level: beginner, intermediate or expert")
	askCmd.Flags().BoolVar(&flagUsePrevious, "use-previous", false, "fold the previous answer into the prompt")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, store, err := openSessionAndKB(ctx, a)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")

	topK := flagTopK
	if topK <= 0 {
		topK = a.Config.TopK
	}

	ans, err := a.Answerer.Ask(ctx, sess, store, question, answer.AskOptions{
		TopK:              topK,
		Expertise:         flagExpertise,
		UsePreviousAnswer: flagUsePrevious,
		HyDE:              a.Config.EnableHyDE,
		Graph:             a.Config.EnableGraph,
	})
	if err != nil {
		return err
	}

	fmt.Println(ans.Text)
	if len(ans.References) > 0 {
		fmt.Println()
		fmt.Println("References:")
		for _, ref := range ans.References {
			fmt.Printf("  - %s\n", ref)
		}
	}
	return nil
}
