package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/viper"
	valkeygo "github.com/valkey-io/valkey-go"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"raglayer/src/core/collection"
	valkeystore "raglayer/src/core/collection/valkey"
	"raglayer/src/infrastructure/integrations/ollama"
	"raglayer/src/storage/elastic"
	"raglayer/src/storage/minioctrl"
	"raglayer/src/storage/pgvector"
	"raglayer/src/storage/weaviate"
)

// Shared constructors for the backing services, configured from viper.
// Every command wires its dependencies through these.

func openDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newVectorStore builds the configured vector backend. The returned cleanup
// releases backend connections and is safe to call once.
func newVectorStore(ctx context.Context) (collection.VectorStore, func(), error) {
	switch backend := viper.GetString("vector.backend"); backend {
	case "weaviate":
		wc := weaviateClient.New(weaviateClient.Config{
			Host:   viper.GetString("weaviate.url"),
			Scheme: viper.GetString("weaviate.scheme"),
		})
		return weaviate.NewStore(wc), func() {}, nil
	case "pgvector":
		connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			viper.GetString("postgres.user"),
			viper.GetString("postgres.password"),
			viper.GetString("postgres.host"),
			viper.GetString("postgres.port"),
			viper.GetString("postgres.db"),
		)
		store, err := pgvector.NewStore(ctx, connString, viper.GetInt("vector.dimensions"))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend: %s", backend)
	}
}

func newKeywordStore() (collection.KeywordStore, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{viper.GetString("elasticsearch.url")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return elastic.NewStore(client), nil
}

func newOllamaClient() *ollama.Client {
	return ollama.NewClient(viper.GetString("ollama.url"), &http.Client{
		Timeout: 5 * time.Minute,
	})
}

func newMinioService() (*minioctrl.MinioService, error) {
	return minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
}

func newHistoryStore() (*valkeystore.HistoryStore, func(), error) {
	client, err := valkeygo.NewClient(valkeygo.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d",
			viper.GetString("valkey.host"),
			viper.GetInt("valkey.port"))},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	return valkeystore.NewHistoryStore(client), client.Close, nil
}
