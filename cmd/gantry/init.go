package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the standard workflow files",
	Long: `Creates the workflow directory with the canonical two-pipeline setup: a test
pipeline gating pushes and pull requests, and a release pipeline for version
tags. Existing files are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = config.DefaultDir
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("Error creating %s: %v\n", dir, err)
			os.Exit(1)
		}

		files := map[string]string{
			"test.yml":    config.DefaultTestWorkflow,
			"release.yml": config.DefaultReleaseWorkflow,
		}
		for name, content := range files {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("  %s already exists, skipping\n", path)
				continue
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				fmt.Printf("Error writing %s: %v\n", path, err)
				os.Exit(1)
			}
			fmt.Printf("  wrote %s\n", path)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
