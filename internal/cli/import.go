package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/repos"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the catalog with products from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(importFile)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		ps, err := repos.ParseCatalog(b)
		if err != nil {
			return err
		}

		cfg := config.Load(envFiles()...)
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := repos.NewProductRepo(db).ReplaceAll(ps); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d products into %s\n", len(ps), cfg.DBDSN)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON catalog file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
