// Package cmd implements the sdlc-kb command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sdlc-kb",
	Short: "Per-project document knowledge base with retrieval-augmented chat",
	Long: `sdlc-kb ingests project documents into a searchable knowledge base and
answers questions about them with source citations.

Documents are chunked, embedded, and stored in PostgreSQL with pgvector.
Run "sdlc-kb serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
