package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hydrochat-core/server/internal/commands/chat"
	"github.com/hydrochat-core/server/internal/commands/serve"
	"github.com/hydrochat-core/server/internal/commands/transcript"
)

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "hydrochat",
		Short:        "Water-aware chat: local prompt shortening plus cold-climate routing",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		chat.NewChatCommand(&envFile),
		serve.NewServeCommand(&envFile),
		transcript.NewTranscriptCommand(&envFile),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
