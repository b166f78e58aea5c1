package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"raglayer/src/log"
)

var rootCmd = &cobra.Command{
	Use:   "raglayer",
	Short: "Retrieval-augmented generation service over document collections",
	Long: `raglayer manages document collections, indexes their content for
vector and keyword search, and answers questions over them with a local
language model.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err, "command failed")
		os.Exit(1)
	}
}

func init() {
	settingDefaultConfig()
}
