package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry/internal/adapters/process"
	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/steps"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check workflow files for consistency",
	Long: `Parses every workflow in the workflow directory and reports unknown events,
invalid glob patterns, dependency cycles and unknown builtin steps.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Workflows are valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = config.DefaultDir
	}

	registry := steps.NewRegistry(process.NewRunner())
	loader := &config.Loader{Builtins: registry.Builtins(), ExpandEnv: true}

	workflows, err := loader.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, wf := range workflows {
		fmt.Printf("  %s: %d jobs\n", wf.Name, len(wf.Jobs))
	}
	return nil
}
