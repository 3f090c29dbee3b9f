package main

import (
	"log"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"acquisition-pdf-pipeline/internal/config"
	"acquisition-pdf-pipeline/internal/delivery"
	"acquisition-pdf-pipeline/internal/pdf"
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

	blob, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		log.Fatalf("connect temporal: %v", err)
	}
	defer temporalClient.Close()

	deliveryTimeout := time.Duration(cfg.DeliveryTimeoutSec) * time.Second

	activities := &appTemporal.Activities{
		Store:    store,
		Renderer: pdf.NewRenderer(cfg.CompanyName),
		Uploader: delivery.NewStorageChannel(blob, cfg.StorageEnabled),
		Mailer: delivery.NewEmailChannel(delivery.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.FromEmail,
			Timeout:  deliveryTimeout,
			Enabled:  cfg.EmailEnabled,
		}),
		Notifier: delivery.NewChatChannel(delivery.ChatConfig{
			WebhookURL: cfg.SlackWebhookURL,
			Channel:    cfg.SlackChannel,
			Timeout:    deliveryTimeout,
			Enabled:    cfg.SlackEnabled,
		}),
		SpoolDir: cfg.SpoolDir,
	}

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(appTemporal.SubmissionPipelineWorkflow, workflow.RegisterOptions{Name: appTemporal.SubmissionPipelineWorkflowName})
	w.RegisterActivity(activities.LoadSubmissionActivity)
	w.RegisterActivity(activities.RenderDocumentActivity)
	w.RegisterActivity(activities.MarkRenderFailedActivity)
	w.RegisterActivity(activities.UploadDocumentActivity)
	w.RegisterActivity(activities.SendEmailActivity)
	w.RegisterActivity(activities.NotifyChatActivity)
	w.RegisterActivity(activities.FinalizeDeliveryActivity)
	w.RegisterActivity(activities.CleanupActivity)

	log.Printf("worker running on task queue %s", cfg.TemporalTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker stopped with error: %v", err)
	}
}
