package cmd

import (
	"github.com/spf13/cobra"

	"raglayer/src/infrastructure/job"
	"raglayer/src/log"
	"raglayer/src/storage/postgres/chunkctrl"
	"raglayer/src/storage/postgres/collectionctrl"
	"raglayer/src/storage/postgres/documentctrl"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if err := collectionctrl.AutoMigrate(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(&documentctrl.Document{}, &chunkctrl.Chunk{}, &job.Job{}); err != nil {
		return err
	}

	log.Info("database schema up to date")
	return nil
}
