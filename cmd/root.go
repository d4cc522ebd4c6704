package cmd

import (
	"fmt"
	"os"

	"unisync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "unisync",
	Short: "Academic catalog sync service",
	Long: `unisync keeps a normalized academic catalog in sync with the public
course catalogs of multiple institutions.
It fetches faculties, subjects, terms, courses, sections and exams through
per-institution adapters and reconciles them into a relational store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with debug level gives readable ISO8601 timestamps for CLI errors
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
