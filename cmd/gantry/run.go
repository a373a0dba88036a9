package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/internal/adapters/gitcli"
	"github.com/aretw0/gantry/internal/adapters/process"
	"github.com/aretw0/gantry/pkg/domain"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch a trigger against the local workflows",
	Long: `Matches the given trigger against every workflow in the workflow directory
and executes the matching pipelines in the current repository checkout.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		event, _ := cmd.Flags().GetString("event")
		ref, _ := cmd.Flags().GetString("ref")
		sha, _ := cmd.Flags().GetString("sha")
		message, _ := cmd.Flags().GetString("message")

		logger := newLogger(cmd)
		orch, err := gantry.New(dir, baseOptions(logger)...)
		if err != nil {
			fmt.Printf("Error initializing gantry: %v\n", err)
			os.Exit(1)
		}

		// Unset commit details are resolved from the local checkout, so a
		// plain `gantry run` dispatches whatever HEAD currently is.
		if sha == "" || message == "" {
			git := gitcli.New(process.NewRunner(), ".")
			if sha == "" {
				if head, err := git.HeadSHA(cmd.Context()); err == nil {
					sha = head
				}
			}
			if message == "" {
				if msg, err := git.HeadMessage(cmd.Context()); err == nil {
					message = msg
				}
			}
		}

		trig := domain.Trigger{
			Event:   domain.EventKind(event),
			Ref:     domain.ShortRef(ref),
			SHA:     sha,
			Message: message,
		}

		results, err := orch.Dispatch(cmd.Context(), trig)
		if err != nil {
			fmt.Printf("Dispatch failed: %v\n", err)
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Printf("No workflow matches %s on %s\n", trig.Event, trig.Ref)
			return
		}

		failed := false
		for _, r := range results {
			fmt.Printf("%s: %s (%s)\n", r.Workflow, r.Status, r.Elapsed.Round(time.Millisecond))
			for _, j := range r.Jobs {
				fmt.Printf("  %s: %s\n", j.JobID, j.Status)
			}
			if r.Status != domain.StatusPassed {
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("event", "push", "Trigger event: push, pull_request or tag_push")
	runCmd.Flags().String("ref", "main", "Branch or tag of the trigger (full refs are accepted)")
	runCmd.Flags().String("sha", "", "Commit SHA for status reporting")
	runCmd.Flags().String("message", "", "Head commit message (checked for the skip marker)")
}
