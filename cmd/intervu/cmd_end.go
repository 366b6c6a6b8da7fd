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

func newEndCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the saved session without joining it",
		Long: `End the saved session without joining it.

Tells the backend to terminate the interview, then clears the saved
session. The slot is cleared even when the backend call fails, so a dead
session never blocks a new one.`,
		Args: cobra.NoArgs,
		RunE: endCommandE,
	}
}

func endCommandE(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	storePath, err := store.DefaultPath()
	if err != nil {
		return err
	}
	st := store.New(storePath)

	sess, err := st.Load()
	if errors.Is(err, store.ErrNoSession) {
		fmt.Println("No saved session.")
		return nil
	}
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Backend.URL)
	res, endErr := client.EndInterview(cmd.Context(), sess.SessionID, sess.AccessToken)

	if err := st.Clear(); err != nil {
		return fmt.Errorf("clearing saved session: %w", err)
	}

	if endErr != nil {
		fmt.Printf("Session slot cleared; backend end call failed: %v\n", endErr)
		return nil
	}

	fmt.Printf("Session %s ended.\n", sess.SessionID)
	if res != nil && res.Summary != nil {
		fmt.Printf("  Questions asked: %d\n", res.Summary.QuestionsAsked)
		if res.Summary.Duration != "" {
			fmt.Printf("  Duration: %s\n", res.Summary.Duration)
		}
	}
	return nil
}
