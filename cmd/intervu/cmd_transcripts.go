package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intervuhq/intervu/internal/config"
	eventlog "github.com/intervuhq/intervu/internal/session"
	"github.com/intervuhq/intervu/internal/transcript"
)

var transcriptsTimeline string

func newTranscriptsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts [file]",
		Short: "List or show saved interview transcripts",
		Long: `List saved interview transcripts, or show one.

With no argument, lists the transcripts in the results directory. With a
file argument, prints that transcript's conversation. --timeline renders
an interview event log instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: transcriptsCommandE,
	}
	cmd.Flags().StringVar(&transcriptsTimeline, "timeline", "", "Render an interview event log (.jsonl) as a timeline")
	return cmd
}

func transcriptsCommandE(cmd *cobra.Command, args []string) error {
	if transcriptsTimeline != "" {
		events, err := eventlog.ReadEvents(transcriptsTimeline)
		if err != nil {
			return err
		}
		eventlog.RenderTimeline(cmd.OutOrStdout(), events)
		return nil
	}

	if len(args) == 1 {
		return showTranscript(args[0])
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	files, err := transcript.List(cfg.Paths.Results)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No transcripts in %s\n", cfg.Paths.Results)
		return nil
	}

	for _, f := range files {
		fmt.Printf("%s  %s\n", f.ModTime.Format("2006-01-02 15:04"), f.Name)
	}
	return nil
}

func showTranscript(path string) error {
	t, err := transcript.Read(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s / %s", t.CandidateName, t.Role)
	if t.CompanyName != "" {
		fmt.Printf(" @ %s", t.CompanyName)
	}
	fmt.Printf("\n%s, %d questions, %dm%ds\n\n",
		t.StartedAt.Local().Format("2006-01-02 15:04"),
		t.QuestionsAsked, t.DurationSeconds/60, t.DurationSeconds%60)

	for _, m := range t.Messages {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp, m.Role, m.Content)
	}
	if t.ErrorMsg != "" {
		fmt.Printf("\nEnded with error: %s\n", t.ErrorMsg)
	}
	return nil
}
