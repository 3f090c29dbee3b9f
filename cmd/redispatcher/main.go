package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"acquisition-pdf-pipeline/internal/config"
	"acquisition-pdf-pipeline/internal/events"
	"acquisition-pdf-pipeline/internal/storage"
	appTemporal "acquisition-pdf-pipeline/internal/temporal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := storage.NewPostgresStore(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer store.Close()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("connect temporal: %v", err)
	}
	defer temporalClient.Close()

	source := events.NewStalledScanSource(store,
		time.Duration(cfg.ScanIntervalSec)*time.Second,
		time.Duration(cfg.ScanMinAgeSec)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("redispatcher scanning for stalled submissions every %ds (min age %ds)", cfg.ScanIntervalSec, cfg.ScanMinAgeSec)
	err = source.Run(ctx, func(parent context.Context, event events.RetryEvent) error {
		workflowID := fmt.Sprintf("%s-%d", cfg.WorkflowIDPrefix, event.SubmissionID)
		execCtx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()

		_, startErr := temporalClient.ExecuteWorkflow(execCtx, client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: cfg.TemporalTaskQueue,
		}, appTemporal.SubmissionPipelineWorkflowName, appTemporal.WorkflowInput{
			SubmissionID: event.SubmissionID,
		})
		if startErr != nil {
			var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(startErr, &alreadyStarted) {
				log.Printf("workflow already running for submission=%d workflow_id=%s", event.SubmissionID, workflowID)
				return nil
			}
			return fmt.Errorf("start workflow for submission %d: %w", event.SubmissionID, startErr)
		}

		log.Printf("re-dispatched submission=%d workflow_id=%s", event.SubmissionID, workflowID)
		return nil
	})
	if err != nil {
		log.Fatalf("redispatcher stopped with error: %v", err)
	}
}
