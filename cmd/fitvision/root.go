package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() (*cobra.Command, *commandContext) {
	cc := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "fitvision",
		Short:         "Exercise form analysis from pose keypoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cc.setupLogging(cmd.ErrOrStderr())
			_, err := cc.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cc.configPath, "config", "c", "", "Tuning configuration file (.json)")
	flags.StringVar(&cc.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	flags.StringVar(&cc.logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	flags.BoolVar(&cc.logJSON, "log-json", false, "Emit logs as JSON")
	flags.StringVar(&cc.dbPath, "db", defaultDBPath, "Capture database path")
	flags.StringVar(&cc.format, "format", formatAuto, "Output format: table, json or auto")
	flags.IntVar(&cc.cacheMB, "cache-mb", -1, "Detection cache size in MiB (overrides detection_cache_mb; 0 disables)")

	rootCmd.AddCommand(newAnalyzeCommand(cc))
	rootCmd.AddCommand(newBatchCommand(cc))
	rootCmd.AddCommand(newCaptureCommand(cc))
	rootCmd.AddCommand(newExercisesCommand(cc))
	rootCmd.AddCommand(newHealthCommand(cc))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd, cc
}
