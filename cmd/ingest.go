package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"raglayer/src/core/collection"
	"raglayer/src/infrastructure/integrations/ollama"
	"raglayer/src/infrastructure/integrations/unstructured"
	"raglayer/src/infrastructure/job"
	"raglayer/src/log"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/collectionctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

var ingestCollectionID int64

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Upload every file in a directory to a collection",
	Long: `The ingest command uploads all regular files in a directory to a
collection and schedules them for indexing. Subdirectories are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int64Var(&ingestCollectionID, "collection", 0, "target collection id (required)")
	ingestCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := args[0]

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found in %s", dir)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	minioService, err := newMinioService()
	if err != nil {
		return err
	}

	vectorStore, closeVectors, err := newVectorStore(ctx)
	if err != nil {
		return err
	}
	defer closeVectors()

	keywordStore, err := newKeywordStore()
	if err != nil {
		return err
	}

	ollamaClient := newOllamaClient()
	unstructuredService := unstructured.NewUnstructuredService(
		viper.GetString("unstructured.url"),
		&http.Client{Timeout: 5 * time.Minute},
	)

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

	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	jobRepo, err := job.NewPostgresJobRepository(db)
	if err != nil {
		return err
	}
	jobService := job.NewJobService(amqpPublisher, jobRepo, watermill.NewStdLogger(false, false), nil)

	splitter := ollama.NewProvider(ollamaClient, collection.DefaultCompletionModel)
	documentService := collection.NewDocumentService(
		collectionRepo, documentCtrl, chunkCtrl, minioService,
		unstructuredService, splitter, vectorStore, keywordStore, jobService,
	)

	bar := progressbar.Default(int64(len(files)), "uploading")

	var failed int
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Error(err, "failed to read file", "file", name)
			failed++
			bar.Add(1)
			continue
		}

		if _, err := documentService.Create(ctx, ingestCollectionID, data, name); err != nil {
			log.Error(err, "failed to upload file", "file", name)
			failed++
		}
		bar.Add(1)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}

	fmt.Printf("uploaded %d files, indexing scheduled\n", len(files))
	return nil
}
