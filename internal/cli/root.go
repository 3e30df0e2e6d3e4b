// Package cli implements ragctl, the operator tool for the RAG service.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the ragctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragctl",
		Short: "Operate and inspect the RAG service",
		Long: `ragctl talks to a running RAG service or builds the retrieval index
locally to inspect what a query would retrieve.

Example usage:
  ragctl smoke --host localhost --port 8000   # Check health, /query and /rag
  ragctl retrieve -q "Who is Einstein?" -k 2  # Show ranked contexts with scores`,
		SilenceUsage: true,
	}

	root.AddCommand(newSmokeCommand(), newRetrieveCommand())
	return root
}

// Execute runs ragctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
