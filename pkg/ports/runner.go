package ports

import "context"

// CommandSpec describes one external tool invocation.
type CommandSpec struct {
	Name string   // binary name or path
	Args []string // argv, never shell-interpreted
	Dir  string   // working directory ("" = process cwd)
	Env  []string // extra KEY=VALUE entries appended to the inherited env
}

// CommandResult is the captured outcome of an invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes external tools. Every collaborator the orchestrator
// talks to (build tool, linter, test runner, git, changelog generator) goes
// through this port, so the whole pipeline is testable with a fake.
//
// A non-zero exit is reported via the error return (with the result still
// populated), so callers can treat "ran and failed" and "could not run"
// uniformly as step failures while keeping the output for logs.
type CommandRunner interface {
	Run(ctx context.Context, spec CommandSpec) (CommandResult, error)
}
