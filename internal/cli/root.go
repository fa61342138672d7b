package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Faceted catalog, cart and checkout server",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load (default .env)")
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
