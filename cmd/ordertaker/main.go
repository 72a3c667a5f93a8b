// Ordertaker answers the phone for a takeaway churrascaria: it turns what
// the caller says into a structured order and forwards the confirmed order
// to an automation webhook.
//
// Usage:
//
//	ordertaker serve [--config /path/to/ordertaker.yaml]
//	ordertaker replay call.txt [--pack pack.yaml] [--json]
//	ordertaker menu [--pack pack.yaml]
//	ordertaker version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/nadzzz/ordertaker/docs"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ordertaker",
	Short: "Phone order assistant for Churrascaria Quitanda",
	Long: `Ordertaker takes takeaway orders over the phone.

Available subcommands:
  serve   - Run the HTTP/WebSocket and gRPC call service
  replay  - Run a recorded call through the engine offline
  menu    - Print the menu of a restaurant pack
  version - Print the version`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ordertaker %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, replayCmd, menuCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
