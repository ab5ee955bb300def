package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"chat-relay/internal/config"
	"chat-relay/internal/logs"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and maintain log files",
	}
	cmd.AddCommand(newLogsListCmd(), newLogsTailCmd(), newLogsSweepCmd())
	return cmd
}

func newLogsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List log destinations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openLogs(config.New())
			if err != nil {
				return err
			}
			defer m.Close()
			files, err := m.ListDestinations()
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newLogsTailCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the newest records of today's log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openLogs(config.New())
			if err != nil {
				return err
			}
			defer m.Close()
			records, err := m.Tail(limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range records {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", logs.DefaultTailLimit, "number of records")
	return cmd
}

func newLogsSweepCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete log files older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			if !cmd.Flags().Changed("days") {
				days = cfg.LogRetentionDays
			}
			m, err := openLogs(cfg)
			if err != nil {
				return err
			}
			defer m.Close()
			removed, err := m.SweepRetention(days)
			for _, f := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", f)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "days to keep (defaults to LOG_RETENTION_DAYS)")
	return cmd
}
