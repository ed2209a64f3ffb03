// Command codegraph is the CLI entry point (spec.md §6): a thin Cobra
// wrapper around the same engine internal/mcpserver and internal/httpapi
// expose, for callers that want a one-shot analysis or a long-running
// server without speaking the MCP tool-call protocol.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}
