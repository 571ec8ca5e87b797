// Command refetch serves configured remote resources as live, revalidating
// state over HTTP and WebSocket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "refetch",
		Short: "Live async resource state for Go services",
		Long: `Refetch keeps remote data as managed resource state: fetched on
demand, revalidated in the background, and streamed to subscribers.

The serve command reads refetch.json, binds each configured source to a
resource, and exposes:

  • GET  /sources                    list all source snapshots
  • GET  /sources/{name}             snapshot (fetches if stale)
  • POST /sources/{name}/revalidate  force a refetch
  • GET  /ws                         snapshot stream over WebSocket
  • GET  /metrics                    Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("refetch %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
