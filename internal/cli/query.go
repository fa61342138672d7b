package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

var queryCmd = &cobra.Command{
	Use:   "query [querystring]",
	Short: "Run a catalog query such as 'category=Men&sort=price-asc&page=2'",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load(envFiles()...)
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		codec := catalog.Codec{MinPrice: cfg.PriceMin, MaxPrice: cfg.PriceMax}
		cat, err := services.NewCatalogService(repos.NewProductRepo(db), codec, cfg.PageSize, 0)
		if err != nil {
			return err
		}
		codec = cat.Codec()
		raw := ""
		if len(args) == 1 {
			raw = strings.TrimPrefix(args[0], "?")
		}
		m := cat.Manager(codec.Encode(codec.ParseQuery(raw)))
		res := cat.Query(m.State())
		return printResult(cmd, m.Values().Encode(), res)
	},
}

func printResult(cmd *cobra.Command, canonical string, res catalog.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "query: ?%s\n", canonical)
	fmt.Fprintf(out, "page %d of %d, %d matching\n\n", res.Page, res.TotalPages, res.TotalCount)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tBRAND\tPRICE\tSTOCK")
	for _, p := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Brand, p.Price.StringFixed(2), domain.CheckStockStatus(p).State)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
