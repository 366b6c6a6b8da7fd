package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intervu",
		Short: "Intervu - terminal client for AI-led technical interviews",
		Long: `Intervu is the candidate-side client for the Intervu interview platform.

It joins a scheduled interview session, carries the conversation over text
or voice, hands off to a code editor when the interviewer asks for code,
and saves the transcript when the session ends.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newJoinCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newResultsCommand())
	cmd.AddCommand(newTranscriptsCommand())
	cmd.AddCommand(newEndCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
