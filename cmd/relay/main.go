package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chat-relay/internal/config"
	"chat-relay/internal/logs"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Chat relay server with admin console and daily log rotation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newLogsCmd())

	if err := root.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func openLogs(cfg *config.Config) (*logs.Manager, error) {
	return logs.New(logs.Options{Dir: cfg.LogDir, Level: cfg.LogLevel})
}
