/*
Package gantry is a lightweight continuous-integration orchestrator for
repositories that want their test, changelog and release automation as
ordinary code instead of hosted-CI YAML glue.

It runs two kinds of pipelines from declarative workflow files: a test
pipeline that gates pushes and pull requests (format, lint, tests) and
regenerates the changelog on pushes to the main branch, and a release
pipeline that on version tags builds the artifact and publishes a release
carrying the changelog excerpt for exactly that version.

# Concept

A Trigger (push, pull_request or tag_push plus a ref) is matched against
each workflow's rule. Matching workflows execute as a DAG of jobs: jobs
within a topological wave run concurrently, steps within a job run
sequentially and fail-fast, and a job whose dependency failed is skipped
rather than run against an inconsistent tree. External tools (git,
git-cliff, the build toolchain) are reached only through the CommandRunner
port, so the whole engine is testable without touching the host system.

# Key Features

  - Declarative YAML workflows with glob-based trigger rules.
  - Wave-parallel job execution; parallel branches are never canceled by a
    sibling failure, only dependents are skipped.
  - Changelog publishing with a commit-message skip marker so the bot
    commit cannot re-trigger the pipeline.
  - Idempotent releases: publishing an already-existing tag is refused.
  - Ports-and-adapters layout: process runner, cache store, forge client
    and run store are all swappable.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/gantry"
		"github.com/aretw0/gantry/pkg/domain"
	)

	func main() {
		orch, err := gantry.New(".gantry/workflows")
		if err != nil {
			log.Fatal(err)
		}

		results, err := orch.Dispatch(context.Background(), domain.Trigger{
			Event:   domain.EventPush,
			Ref:     "main",
			SHA:     "0a1b2c3",
			Message: "feat: add widget",
		})
		if err != nil {
			log.Fatal(err)
		}
		for _, r := range results {
			log.Printf("%s: %s", r.Workflow, r.Status)
		}
	}
*/
package gantry
