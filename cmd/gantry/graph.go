package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export workflow job graphs as Mermaid diagrams",
	Long: `Inspects the workflow directory and outputs one Mermaid diagram (graph TD)
per workflow, showing jobs, dependency edges and conditional gates.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		only, _ := cmd.Flags().GetString("workflow")

		orch, err := gantry.New(dir, baseOptions(newLogger(cmd))...)
		if err != nil {
			fmt.Printf("Error initializing gantry: %v\n", err)
			os.Exit(1)
		}

		for _, wf := range orch.Workflows() {
			if only != "" && wf.Name != only {
				continue
			}
			output, err := graph.GenerateMermaid(&wf, nil)
			if err != nil {
				fmt.Printf("Error rendering %s: %v\n", wf.Name, err)
				os.Exit(1)
			}
			fmt.Print(output)
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("workflow", "", "Render only the named workflow")
}
