package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cobra"

	"github.com/outstaffer/candidate-summary-api/internal/config"
	"github.com/outstaffer/candidate-summary-api/internal/store"
	"github.com/outstaffer/candidate-summary-api/internal/worker"
)

var workerPort int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the summary task worker",
	Long:  `Start the HTTP worker that receives Cloud Tasks pushes, runs the summary pipeline against the main API and records each run in Firestore.`,
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerPort, "port", 8082, "Port to listen on")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if err := cfg.WorkerReady(); err != nil {
		return err
	}

	var auditStore worker.Store
	if cfg.GCPProjectID != "" {
		fsClient, err := firestore.NewClient(context.Background(), cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("failed to connect to Firestore: %w", err)
		}
		defer fsClient.Close()
		auditStore = store.New(fsClient)
	} else {
		log.Printf("GCP_PROJECT_ID not set; running on fallback config without audit records")
	}

	orchestrator := worker.NewOrchestrator(worker.NewClient(cfg.AppURL), auditStore)
	return worker.New(strconv.Itoa(workerPort), orchestrator).Start()
}
