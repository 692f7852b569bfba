package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <learner> <subject>",
	Short: "Delete a learner's record and history for a subject",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		learnerID, subjectID := args[0], args[1]
		if err := svc.Reset(cmd.Context(), learnerID, subjectID); err != nil {
			return err
		}
		fmt.Printf("reset %s / %s\n", learnerID, subjectID)
		return nil
	},
}
