// Package config loads and validates declarative workflow definitions from
// YAML files. Validation happens entirely at load time: trigger globs, job
// graph shape and step forms are checked before any run is dispatched, so a
// broken workflow file can never half-execute.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/gantry/internal/scheduler"
	"github.com/aretw0/gantry/internal/trigger"
	"github.com/aretw0/gantry/pkg/domain"
)

// DefaultDir is the conventional workflow directory inside a repository.
var DefaultDir = filepath.Join(".gantry", "workflows")

// Loader parses workflow files.
type Loader struct {
	// Builtins, when set, restricts `uses:` names to the listed builtins.
	Builtins []string

	// ExpandEnv substitutes ${VAR} references in file contents before
	// parsing, so tokens and paths can live in the environment.
	ExpandEnv bool
}

// LoadDir reads every *.yml / *.yaml file in dir, sorted by name.
func (l *Loader) LoadDir(dir string) ([]domain.Workflow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no workflow files in %s", dir)
	}

	workflows := make([]domain.Workflow, 0, len(files))
	seen := make(map[string]string)
	for _, name := range files {
		wf, err := l.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[wf.Name]; dup {
			return nil, fmt.Errorf("duplicate workflow name %q in %s and %s", wf.Name, prev, name)
		}
		seen[wf.Name] = name
		workflows = append(workflows, *wf)
	}
	return workflows, nil
}

// Load reads and validates a single workflow file.
func (l *Loader) Load(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	wf, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return wf, nil
}

// Parse decodes and validates workflow YAML.
func (l *Loader) Parse(data []byte) (*domain.Workflow, error) {
	if l.ExpandEnv {
		data = []byte(os.ExpandEnv(string(data)))
	}

	var wf domain.Workflow
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&wf); err != nil {
		return nil, fmt.Errorf("invalid workflow yaml: %w", err)
	}

	if err := l.Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Validate checks a workflow definition without executing anything.
func (l *Loader) Validate(wf *domain.Workflow) error {
	if wf.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if len(wf.On.Events) == 0 {
		return fmt.Errorf("workflow %q has no trigger events", wf.Name)
	}
	if err := validateRule(wf.On); err != nil {
		return fmt.Errorf("workflow %q: %w", wf.Name, err)
	}

	// Graph shape: unknown needs and cycles surface here, not at run time.
	if _, err := scheduler.BuildDAG(wf.Jobs); err != nil {
		return fmt.Errorf("workflow %q: %w", wf.Name, err)
	}

	for _, job := range wf.Jobs {
		if job.Only != nil {
			if err := validateRule(*job.Only); err != nil {
				return fmt.Errorf("workflow %q job %q: %w", wf.Name, job.ID, err)
			}
		}
		if len(job.Steps) == 0 {
			return fmt.Errorf("workflow %q job %q has no steps", wf.Name, job.ID)
		}
		for i, step := range job.Steps {
			if err := l.validateStep(step); err != nil {
				return fmt.Errorf("workflow %q job %q step %d: %w", wf.Name, job.ID, i+1, err)
			}
		}
	}
	return nil
}

func (l *Loader) validateStep(step domain.Step) error {
	switch {
	case step.Run == "" && step.Uses == "":
		return fmt.Errorf("step needs either run or uses")
	case step.Run != "" && step.Uses != "":
		return fmt.Errorf("step cannot set both run and uses")
	}
	if step.Uses != "" && len(l.Builtins) > 0 {
		for _, b := range l.Builtins {
			if b == step.Uses {
				return nil
			}
		}
		return fmt.Errorf("unknown builtin %q", step.Uses)
	}
	return nil
}

func validateRule(rule domain.TriggerRule) error {
	for _, ev := range rule.Events {
		switch ev {
		case domain.EventPush, domain.EventPullRequest, domain.EventTagPush:
		default:
			return fmt.Errorf("unknown event kind %q", ev)
		}
	}
	if bad, ok := trigger.ValidatePatterns(rule); !ok {
		return fmt.Errorf("invalid glob pattern %q", bad)
	}
	return nil
}
