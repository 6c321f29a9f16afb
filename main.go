package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	envFile string
	port    string
)

var rootCmd = &cobra.Command{
	Use:   "restaurant",
	Short: "Restaurant ordering backend",
	Long: `Restaurant ordering backend: catalog, daily menu, carts, checkout and
order tracking over a JSON API. The gradebook command serves the school
gradebook API from its own database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file with configuration")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "listen port (overrides PORT / GRADEBOOK_PORT)")
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, gradebookCmd)
}

func addr(p string) string {
	return fmt.Sprintf(":%s", p)
}
