package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intervuhq/intervu/internal/api"
	"github.com/intervuhq/intervu/internal/config"
	"github.com/intervuhq/intervu/internal/store"
)

var resultsShowHistory bool

func newResultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results [session-id]",
		Short: "Fetch the evaluation for a completed session",
		Long: `Fetch the evaluation for a completed session.

Without an argument, the saved session's ID is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: resultsCommandE,
	}
	cmd.Flags().BoolVar(&resultsShowHistory, "history", false, "Also print the conversation history")
	return cmd
}

func resultsCommandE(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	} else {
		storePath, err := store.DefaultPath()
		if err != nil {
			return err
		}
		sess, err := store.New(storePath).Load()
		if errors.Is(err, store.ErrNoSession) {
			return errors.New("no session ID given and none saved; pass a session ID")
		}
		if err != nil {
			return err
		}
		sessionID = sess.SessionID
	}

	client := api.NewClient(cfg.Backend.URL)
	res, err := client.Results(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("fetching results for %s: %w", sessionID, err)
	}

	fmt.Printf("Candidate: %s\n", res.CandidateName)
	fmt.Printf("Role:      %s\n", res.Role)
	fmt.Printf("Status:    %s\n", res.Status)

	if res.InterviewData == nil || res.InterviewData.Results == nil {
		fmt.Println("\nNo evaluation available yet.")
		return nil
	}

	r := res.InterviewData.Results
	fmt.Printf("\nOverall score: %.1f/10\n", r.Score)
	fmt.Printf("  Technical:       %.1f\n", r.Scores.Technical)
	fmt.Printf("  Communication:   %.1f\n", r.Scores.Communication)
	fmt.Printf("  Problem solving: %.1f\n", r.Scores.ProblemSolving)
	if r.Feedback != "" {
		fmt.Printf("\nFeedback:\n%s\n", r.Feedback)
	}

	if resultsShowHistory {
		fmt.Println("\nConversation:")
		for _, m := range res.InterviewData.ConversationHistory {
			fmt.Printf("  [%s] %s\n", m.Role, m.Content)
		}
	}
	return nil
}
