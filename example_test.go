package gantry_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/pkg/domain"
)

// ExampleOrchestrator_Dispatch runs a minimal one-job pipeline against a
// workflow directory created on the fly.
func ExampleOrchestrator_Dispatch() {
	dir, err := os.MkdirTemp("", "gantry-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	workflow := `name: hello
on:
  events: [push]
  branches: [main]
jobs:
  - id: greet
    steps:
      - name: say-hello
        run: echo hello
`
	if err := os.WriteFile(filepath.Join(dir, "hello.yml"), []byte(workflow), 0o644); err != nil {
		log.Fatal(err)
	}

	orch, err := gantry.New(dir)
	if err != nil {
		log.Fatal(err)
	}

	results, err := orch.Dispatch(context.Background(), domain.Trigger{
		Event: domain.EventPush,
		Ref:   "main",
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Printf("%s: %s\n", r.Workflow, r.Status)
	}
	// Output:
	// hello: passed
}
