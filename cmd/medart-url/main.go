package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medart-url",
		Short: "Image delivery URL tool",
		Long: `Builds and signs image proxy URLs with the same settings the server uses.

Reads IMGPROXY_URL, IMGPROXY_KEY, IMGPROXY_SALT, STORAGE_PUBLIC_ENDPOINT and
PLACEHOLDER_IMAGE from the environment. The put command also reads the S3_*
variables.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewSignCommand())
	rootCmd.AddCommand(NewURLCommand())
	rootCmd.AddCommand(NewPutCommand())

	return rootCmd
}
