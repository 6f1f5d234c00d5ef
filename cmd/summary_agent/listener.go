package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/outstaffer/candidate-summary-api/internal/config"
	"github.com/outstaffer/candidate-summary-api/internal/listener"
	"github.com/outstaffer/candidate-summary-api/internal/tasks"
)

var listenerPort int

var listenerCmd = &cobra.Command{
	Use:   "listener",
	Short: "Start the RecruitCRM webhook listener",
	Long:  `Start the HTTP listener that receives RecruitCRM stage-change webhooks and enqueues a Cloud Tasks job for each candidate reaching the target stage.`,
	RunE:  runListener,
}

func init() {
	listenerCmd.Flags().IntVar(&listenerPort, "port", 8081, "Port to listen on")
	rootCmd.AddCommand(listenerCmd)
}

func runListener(_ *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if err := cfg.ListenerReady(); err != nil {
		return err
	}

	enqueuer, err := tasks.NewClient(context.Background(), tasks.Config{
		ProjectID:           cfg.GCPProjectID,
		Location:            cfg.CloudTasksLocation,
		Queue:               cfg.CloudTasksQueue,
		WorkerURL:           cfg.WorkerURL,
		ServiceAccountEmail: cfg.TasksServiceAccount,
		// Generation can run for minutes; give each attempt room beyond
		// the worker's own write timeout.
		DispatchDeadline: 10 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create task queue client: %w", err)
	}
	defer enqueuer.Close()

	return listener.New(strconv.Itoa(listenerPort), enqueuer, cfg.TargetStageID).Start()
}
