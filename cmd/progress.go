package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <learner> <subject>",
	Short: "Show a learner's progress in a subject",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		learnerID, subjectID := args[0], args[1]
		sum, err := svc.ProgressSummary(cmd.Context(), learnerID, subjectID)
		if err != nil {
			return err
		}

		fmt.Printf("%s / %s\n", learnerID, subjectID)
		fmt.Printf("  elo rating:       %.0f\n", sum.EloRating)
		fmt.Printf("  concepts:         %d/%d mastered (%d unlocked)\n",
			sum.MasteredCount, sum.TotalConcepts, sum.UnlockedCount)
		fmt.Printf("  average mastery:  %.0f%%\n", sum.AverageMastery*100)
		fmt.Printf("  questions:        %d answered\n", sum.TotalQuestionsAnswered)
		if sum.CurrentFocus != "" {
			fmt.Printf("  current focus:    %s\n", sum.CurrentFocus)
		}
		if len(sum.WeakConcepts) > 0 {
			fmt.Println("  weak concepts:")
			for _, w := range sum.WeakConcepts {
				fmt.Printf("    %s (%s)  %.0f%%\n", w.Name, w.ConceptID, w.PL*100)
			}
		}
		return nil
	},
}
