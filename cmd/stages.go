package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the deal stages configured in the CRM workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("stages"); err != nil {
			return err
		}

		svc := newSidebarService(cfg)
		stages, err := svc.Stages(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list stages")
		}

		for _, s := range stages {
			fmt.Printf("%s\t%s\n", s.ID, s.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
