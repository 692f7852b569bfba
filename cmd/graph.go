package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/masterpath/internal/kgraph"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage knowledge-graph files",
}

var graphValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a knowledge-graph file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		g, err := kgraph.Parse(raw)
		if err != nil {
			return err
		}
		fmt.Printf("%s: valid (%d concepts, %d roots)\n", args[0], g.Len(), len(g.Roots()))
		return nil
	},
}

var graphShowCmd = &cobra.Command{
	Use:   "show <subject>",
	Short: "Print the concept graph for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir, err := resolveGraphsDir(cmd, cfg)
		if err != nil {
			return err
		}
		g, err := kgraph.NewRegistry(dir).Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d concepts)\n", g.SubjectID(), g.Len())
		for _, c := range g.Concepts() {
			indent := strings.Repeat("  ", c.Depth)
			if c.IsRoot() {
				fmt.Printf("%s%s  %s\n", indent, c.ID, c.Name)
			} else {
				fmt.Printf("%s%s  %s  (requires %s)\n", indent, c.ID, c.Name, strings.Join(c.Prerequisites, ", "))
			}
		}
		return nil
	},
}

var graphInitSampleCmd = &cobra.Command{
	Use:   "init-sample",
	Short: "Write the bundled sample graph into the graphs directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir, err := resolveGraphsDir(cmd, cfg)
		if err != nil {
			return err
		}
		path, err := kgraph.WriteSample(dir)
		if err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphValidateCmd)
	graphCmd.AddCommand(graphShowCmd)
	graphCmd.AddCommand(graphInitSampleCmd)
}
