// Package main provides the entry point for the candidate summary service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "summary_agent",
	Short: "Candidate summary API, webhook listener and task worker",
	Long:  "Candidate summary service: generates recruiter-ready HTML briefs from ATS records, AI interview results, resumes and meeting transcripts. Subcommands run the REST API server, the RecruitCRM webhook listener, the Cloud Tasks worker, or a one-off generation from the terminal.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
