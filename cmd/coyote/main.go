// Command coyote runs the coyote HTTP/1.1 server.
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
		Use:   "coyote",
		Short: "A minimal HTTP/1.1 server",
		Long: `Coyote is a minimal HTTP/1.1 server with a bounded worker pool,
cookie sessions and a small set of controllers (hello, login, register and
static pages).

Run "coyote init" to write a default configuration, then "coyote serve".`,
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
