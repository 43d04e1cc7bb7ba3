package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List documents in the knowledge base",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	_, store, err := openSessionAndKB(ctx, a)
	if err != nil {
		return err
	}

	docs := store.ListDocuments()
	if len(docs) == 0 {
		fmt.Printf("No documents in %s/%s\n", resolveUser(), flagKB)
		return nil
	}

	for _, d := range docs {
		fmt.Printf("%s  %-8s  %8.1f KB  %s  %s\n",
			d.DocID, d.Provenance, float64(d.SizeBytes)/1024,
			d.UploadedAt.Format("2006-01-02 15:04"), d.DisplayName)
	}
	fmt.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	_, store, err := openSessionAndKB(ctx, a)
	if err != nil {
		return err
	}

	docID := args[0]
	if err := store.Delete(ctx, docID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", docID)
	return nil
}
