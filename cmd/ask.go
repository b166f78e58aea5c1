package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"raglayer/src/core/collection"
	"raglayer/src/storage/postgres/collectionctrl"
)

var (
	askCollectionID int64
	askHybrid       bool
	askLimit        int
	askSessionID    string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over a collection",
	Long: `The ask command retrieves context from a collection and generates
a one-shot answer. Pass --session to keep the exchange in chat history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int64Var(&askCollectionID, "collection", 0, "target collection id (required)")
	askCmd.Flags().BoolVar(&askHybrid, "hybrid", false, "use hybrid search for retrieval")
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "maximum context chunks to retrieve")
	askCmd.Flags().StringVar(&askSessionID, "session", "", "chat session id for history")
	askCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := strings.Join(args, " ")

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	vectorStore, closeVectors, err := newVectorStore(ctx)
	if err != nil {
		return err
	}
	defer closeVectors()

	keywordStore, err := newKeywordStore()
	if err != nil {
		return err
	}

	historyStore, closeHistory, err := newHistoryStore()
	if err != nil {
		return err
	}
	defer closeHistory()

	ollamaClient := newOllamaClient()

	collectionRepo, err := collectionctrl.NewCollectionService(db)
	if err != nil {
		return err
	}

	searchService := collection.NewSearchService(collectionRepo, vectorStore, keywordStore, ollamaClient)
	chatService := collection.NewChatService(collectionRepo, searchService, ollamaClient, historyStore)

	var messages []collection.ChatMessage
	if askSessionID != "" {
		history, err := chatService.GetHistory(ctx, askSessionID)
		if err != nil {
			return err
		}
		messages = history
	}
	messages = append(messages, collection.ChatMessage{
		SessionID: askSessionID,
		Role:      "user",
		Content:   question,
	})

	response, err := chatService.GenerateCompletion(ctx, askCollectionID, collection.RetrievalSpec{
		Hybrid: askHybrid,
		Limit:  askLimit,
	}, messages)
	if err != nil {
		return err
	}

	fmt.Println(response.Content)
	return nil
}
