package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/masterpath/internal/question"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage the question pool",
}

var questionsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import questions from a JSON file",
	Long: "Import questions into the pool. Re-importing refreshes question text\n" +
		"but keeps the difficulty ratings and attempt counters the engine has\n" +
		"accumulated.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qs, err := question.LoadFile(args[0])
		if err != nil {
			return err
		}

		_, st, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := st.ImportQuestions(cmd.Context(), qs)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d questions from %s\n", n, args[0])
		return nil
	},
}

func init() {
	questionsCmd.AddCommand(questionsImportCmd)
}
