package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/careerchat/repository"
	"github.com/spf13/cobra"
)

func historyCMD(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "history <session_id>",
		Short: "Print a session's stored turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			repo, err := repository.NewConversationRepository(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer repo.Close()
			turns, err := repo.ListTurns(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range turns {
				fmt.Fprintf(out, "%s [%s] %s\n", t.Timestamp.Format(time.RFC3339), t.Role, t.Message)
			}
			return nil
		},
	}
}

func resetCMD(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <session_id>",
		Short: "Delete a session's stored turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			repo, err := repository.NewConversationRepository(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer repo.Close()
			n, err := repo.DeleteTurns(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d turns for session %s\n", n, args[0])
			return nil
		},
	}
}
