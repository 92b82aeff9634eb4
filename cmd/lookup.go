package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-sidebar/internal/participant"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <email>",
	Short: "Resolve one email against the CRM and print the sidebar state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		svc := newSidebarService(cfg)
		messages := []participant.Message{
			{From: participant.Address{Email: args[0]}},
		}
		state := svc.SetConversation(cmd.Context(), "cli-lookup", messages)

		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal state")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
