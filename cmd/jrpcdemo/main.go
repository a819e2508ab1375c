// Command jrpcdemo runs a JSON-RPC server over stdin/stdout, framed as
// either delimited or Content-Length messages, serving the handlers in
// examples/tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jrpcdemo",
		Short: "A demo JSON-RPC 2.0 server over stdin/stdout",
		Long:  longRoot,
	}
	cmd.AddCommand(serveCmd())
	return cmd
}

var longRoot = `
jrpcdemo hosts the demo handlers in examples/tools behind a JSON-RPC 2.0
pipeline, reading requests from stdin and writing replies to stdout.
`
