// Package main provides the entry point for the docketmind HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docketmind",
	Short: "Docketmind HTTP API Server",
	Long:  "Docketmind ingests legal documents, routes them through LLM agent personas, and serves structured analysis, swarm runs, and reports via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
