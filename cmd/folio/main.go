package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foliolabs/folio/internal/cli"
	"github.com/foliolabs/folio/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Folio CLI - Portfolio chatbot client",
		Long: `Folio CLI talks to a running folio server.

Environment variables:
  FOLIO_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.HealthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
