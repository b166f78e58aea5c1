package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"raglayer/src/infrastructure/job"
	"raglayer/src/log"
	"raglayer/src/metrics"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/collectionctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background indexing worker",
	Long: `The worker command consumes queued jobs and runs the indexing
pipeline: embedding document chunks and writing them to the vector and
keyword indexes.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := watermill.NewStdLogger(false, false)

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize AMQP publisher
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		logger,
	)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	// Initialize AMQP subscriber
	subscriberConfig := amqp.NewDurableQueueConfig(viper.GetString("amqp.url"))
	subscriberConfig.Consume.NoRequeueOnNack = true
	amqpSubscriber, err := amqp.NewSubscriber(subscriberConfig, logger)
	if err != nil {
		return err
	}
	defer amqpSubscriber.Close()

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          logger,
		}.Middleware,
	)

	minioService, err := newMinioService()
	if err != nil {
		return err
	}

	ollamaClient := newOllamaClient()

	vectorStore, closeVectors, err := newVectorStore(ctx)
	if err != nil {
		return err
	}
	defer closeVectors()

	keywordStore, err := newKeywordStore()
	if err != nil {
		return err
	}

	collectionRepo, err := collectionctrl.NewCollectionService(db)
	if err != nil {
		return err
	}
	documentCtrl, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return err
	}
	chunkCtrl, err := chunkctrl.NewChunkService(db)
	if err != nil {
		return err
	}

	indexTask := job.NewIndexTask(
		collectionRepo,
		documentCtrl,
		chunkCtrl,
		minioService,
		ollamaClient,
		vectorStore,
		keywordStore,
	)

	jobRepo, err := job.NewPostgresJobRepository(db)
	if err != nil {
		return err
	}
	jobService := job.NewJobService(amqpPublisher, jobRepo, logger, indexTask)

	router.AddNoPublisherHandler(
		"job_processor",
		job.JobsTopic,
		amqpSubscriber,
		func(msg *message.Message) error {
			return jobService.ProcessJobMessage(msg)
		},
	)

	var metricsServer *metrics.Server
	if viper.GetBool("metrics.enabled") {
		metricsServer = metrics.NewServer(":" + viper.GetString("metrics.port"))
		metricsServer.Start()
	}

	go func() {
		if err := router.Run(ctx); err != nil {
			log.Error(err, "router stopped")
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	log.Info("Shutting down worker...")
	cancel()
	<-router.Running()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "Metrics server forced to shutdown")
		}
	}
	log.Info("Worker stopped")

	return nil
}
