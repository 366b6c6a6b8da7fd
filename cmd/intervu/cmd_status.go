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

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend health and the saved session",
		Args:  cobra.NoArgs,
		RunE:  statusCommandE,
	}
}

func statusCommandE(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Backend.URL)

	fmt.Printf("Backend:  %s\n", cfg.Backend.URL)
	if err := client.Health(cmd.Context()); err != nil {
		fmt.Printf("Health:   unreachable (%v)\n", err)
	} else {
		fmt.Println("Health:   ok")
	}

	storePath, err := store.DefaultPath()
	if err != nil {
		return err
	}
	sess, err := store.New(storePath).Load()
	if errors.Is(err, store.ErrNoSession) {
		fmt.Println("Session:  none saved")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Session:  %s\n", sess.SessionID)
	if sess.CandidateName != "" {
		fmt.Printf("Candidate: %s\n", sess.CandidateName)
	}
	if sess.Role != "" {
		fmt.Printf("Role:     %s\n", sess.Role)
	}
	if sess.Status != "" {
		fmt.Printf("Status:   %s\n", sess.Status)
	}
	if end := sess.EndsAt(); !end.IsZero() {
		fmt.Printf("Ends at:  %s\n", end.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
