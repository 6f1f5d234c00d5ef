package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/outstaffer/candidate-summary-api/internal/config"
	"github.com/outstaffer/candidate-summary-api/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start the HTTP server that exposes the summary generation REST API, the bulk and multi-candidate endpoints, and the admin surface.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		log.Printf("Missing integration keys: %v (endpoints depending on them will fail)", missing)
	}

	srv, err := server.New(server.Config{
		Port:              servePort,
		RecruitCRMAPIKey:  cfg.RecruitCRMAPIKey,
		AlphaRunAPIKey:    cfg.AlphaRunAPIKey,
		FirefliesAPIKey:   cfg.FirefliesAPIKey,
		GoogleAPIKey:      cfg.GoogleAPIKey,
		GmailClientID:     cfg.GmailClientID,
		GmailClientSecret: cfg.GmailClientSecret,
		PromptStore:       cfg.PromptStore,
		PromptDir:         cfg.PromptDir,
		FirestoreProject:  cfg.GCPProjectID,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
