package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry/internal/adapters/gitcli"
	"github.com/aretw0/gantry/internal/adapters/process"
	"github.com/aretw0/gantry/internal/presentation/tui"
	"github.com/aretw0/gantry/pkg/ports"
)

// changelogCmd drives the changelog generator outside of a pipeline run,
// for local inspection before pushing.
var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Regenerate the changelog or preview a release excerpt",
	Long: `Runs the changelog generator the same way the pipeline does. By default the
full changelog is regenerated in place; with --release only the excerpt for
the latest tag is printed, which is what a release body would carry.`,
	Run: func(cmd *cobra.Command, args []string) {
		release, _ := cmd.Flags().GetBool("release")
		preview, _ := cmd.Flags().GetBool("preview")
		cfg, _ := cmd.Flags().GetString("config")

		var cliffArgs []string
		if cfg != "" {
			cliffArgs = append(cliffArgs, "--config", cfg)
		}
		if release || preview {
			cliffArgs = append(cliffArgs, "--latest", "--strip", "header")
		} else {
			cliffArgs = append(cliffArgs, "--output", "CHANGELOG.md")
		}

		logger := newLogger(cmd)
		runner := process.NewRunner(process.WithLogger(logger))

		if release || preview {
			if tag, err := gitcli.New(runner, ".").LastTag(cmd.Context()); err == nil && tag != "" {
				logger.Info("rendering excerpt", "tag", tag)
			}
		}

		result, err := runner.Run(cmd.Context(), ports.CommandSpec{
			Name: "git-cliff",
			Args: cliffArgs,
		})
		if err != nil {
			fmt.Printf("Changelog generation failed: %v\n%s", err, result.Stderr)
			os.Exit(1)
		}

		if !release && !preview {
			fmt.Println("CHANGELOG.md regenerated")
			return
		}

		output := result.Stdout
		if preview && tui.Interactive() {
			if rendered, err := tui.NewRenderer()(output); err == nil {
				output = rendered
			}
		}
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(changelogCmd)

	changelogCmd.Flags().Bool("release", false, "Print the latest-tag excerpt instead of writing the file")
	changelogCmd.Flags().Bool("preview", false, "Render the latest-tag excerpt in the terminal")
	changelogCmd.Flags().String("config", "cliff.toml", "Changelog generator configuration file")
}
