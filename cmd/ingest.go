package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ragnova/ragnova/internal/ingest"
)

var (
	flagCrawlDepth int
	flagCrawlPages int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path-or-url>",
	Short: "Add a file, folder or web page to the knowledge base",
	Long: `Ingest adds content to the selected knowledge base.

The argument may be a file, a directory (every supported file inside it,
honoring .gitignore), or an http(s) URL. URLs are crawled up to --depth
levels and --max-pages pages; each fetched page becomes one document.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&flagCrawlDepth, "depth", 0, "crawl depth for URLs (default from config)")
	ingestCmd.Flags().IntVar(&flagCrawlPages, "max-pages", 0, "crawl page budget for URLs (default from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	target := args[0]
	switch {
	case isURL(target):
		depth := flagCrawlDepth
		if depth <= 0 {
			depth = a.Config.CrawlMaxDepth
		}
		pages := flagCrawlPages
		if pages <= 0 {
			pages = a.Config.CrawlMaxPages
		}
		report, err := a.Ingestor.AddURL(ctx, store, target, depth, pages)
		if err != nil {
			return err
		}
		printReport(report)

	case isDir(target):
		report, err := a.Ingestor.AddFolder(ctx, store, target)
		if err != nil {
			return err
		}
		printReport(report)

	default:
		docID, err := a.Ingestor.AddFile(ctx, store, target)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (doc %s) to %s/%s\n", target, docID, sess.Owner, flagKB)
	}

	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func printReport(r *ingest.Report) {
	fmt.Printf("Added: %d  Skipped: %d  Failed: %d\n", r.Added, r.Skipped, r.Failed)
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}
