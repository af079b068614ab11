package cli

import (
	"context"
	"fmt"
	"log"

	"aptitude-practice-service/internal/config"
	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/importer"
	"github.com/spf13/cobra"
)

// NewImportCmd loads questions from an xlsx or csv file into the configured store.
func NewImportCmd(configPath *string) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import questions from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == config.DriverMemory {
				return fmt.Errorf("import needs a persistent storage driver, got %q", cfg.Storage.Driver)
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			result, err := importer.Import(cmd.Context(), importer.ImportConfig{FilePath: args[0], SheetName: sheet}, cacheEvictingWriter{b})
			if err != nil {
				return err
			}
			for _, msg := range result.Errors {
				log.Printf("skipped %s", msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d, saved %d, skipped %d\n", result.TotalProcessed, result.Saved, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to read (xlsx only, default first sheet)")
	return cmd
}

// cacheEvictingWriter saves through the store and drops the stale shared cache entry.
type cacheEvictingWriter struct {
	b *backend
}

func (w cacheEvictingWriter) SaveQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	saved, err := w.b.store.SaveQuestion(ctx, q)
	if err != nil {
		return saved, err
	}
	if err := w.b.forget(ctx, saved); err != nil {
		log.Printf("evict cached question %s: %v", saved.Slug, err)
	}
	return saved, nil
}
