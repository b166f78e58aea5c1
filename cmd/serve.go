package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	v1 "raglayer/handler/http/v1"
	"raglayer/src/core/collection"
	"raglayer/src/infrastructure/integrations/ollama"
	"raglayer/src/infrastructure/integrations/unstructured"
	"raglayer/src/infrastructure/job"
	"raglayer/src/log"
	"raglayer/src/metrics"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/collectionctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rag HTTP server",
	Long:  `The serve command starts an HTTP server that provides the rag service API`,
	Run:   RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	db, err := openDatabase()
	if err != nil {
		log.Error(err, "Failed to connect to database")
		return
	}

	ollamaClient := newOllamaClient()

	vectorStore, closeVectors, err := newVectorStore(ctx)
	if err != nil {
		log.Error(err, "Failed to create vector store")
		return
	}
	defer closeVectors()

	keywordStore, err := newKeywordStore()
	if err != nil {
		log.Error(err, "Failed to create keyword store")
		return
	}

	minioService, err := newMinioService()
	if err != nil {
		log.Error(err, "Failed to create minio service")
		return
	}

	historyStore, closeHistory, err := newHistoryStore()
	if err != nil {
		log.Error(err, "Failed to create history store")
		return
	}
	defer closeHistory()

	unstructuredService := unstructured.NewUnstructuredService(
		viper.GetString("unstructured.url"),
		&http.Client{Timeout: 5 * time.Minute},
	)

	collectionRepo, err := collectionctrl.NewCollectionService(db)
	if err != nil {
		log.Error(err, "Failed to create collection repository")
		return
	}
	documentCtrl, err := documentctrl.NewDocumentService(db)
	if err != nil {
		log.Error(err, "Failed to create document repository")
		return
	}
	chunkCtrl, err := chunkctrl.NewChunkService(db)
	if err != nil {
		log.Error(err, "Failed to create chunk repository")
		return
	}

	// Jobs are only enqueued here; the worker command processes them
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Error(err, "Failed to create amqp publisher")
		return
	}
	defer amqpPublisher.Close()

	jobRepo, err := job.NewPostgresJobRepository(db)
	if err != nil {
		log.Error(err, "Failed to create job repository")
		return
	}
	jobService := job.NewJobService(amqpPublisher, jobRepo, watermill.NewStdLogger(false, false), nil)

	splitter := ollama.NewProvider(ollamaClient, collection.DefaultCompletionModel)

	collectionService := collection.NewCollectionService(
		collectionRepo, documentCtrl, chunkCtrl, minioService, vectorStore, keywordStore,
	)
	documentService := collection.NewDocumentService(
		collectionRepo, documentCtrl, chunkCtrl, minioService,
		unstructuredService, splitter, vectorStore, keywordStore, jobService,
	)
	searchService := collection.NewSearchService(collectionRepo, vectorStore, keywordStore, ollamaClient)
	chatService := collection.NewChatService(collectionRepo, searchService, ollamaClient, historyStore)
	systemService := collection.NewSystemService(historyStore, vectorStore, keywordStore, ollamaClient)

	handler := v1.NewHandler(
		collectionService,
		documentService,
		searchService,
		chatService,
		systemService,
	)

	r := gin.Default()
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	var metricsServer *metrics.Server
	if viper.GetBool("metrics.enabled") {
		metricsServer = metrics.NewServer(":" + viper.GetString("metrics.port"))
		metricsServer.Start()
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := closeDatabase(db); err != nil {
		log.Error(err, "Error closing database connection")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "Metrics server forced to shutdown")
		}
	}

	log.Info("Server exited")
}
