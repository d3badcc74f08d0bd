package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/voicechat/internal/history"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or reset the stored conversation",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored turns as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := history.NewStore(cmd.Context(), cfg.History, log)
			if err != nil {
				return err
			}
			defer store.Close()

			conv, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if conv == nil {
				conv = history.Conversation{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(conv)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every stored turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := history.NewStore(cmd.Context(), cfg.History, log)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(cmd.Context(), history.Conversation{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}

	cmd.AddCommand(showCmd, clearCmd)
	return cmd
}
