package scheduler

import (
	"fmt"
	"sort"

	"github.com/aretw0/gantry/pkg/domain"
)

// DAG is the explicit dependency graph of a workflow's jobs. Modeling the
// graph directly (instead of relying on declaration order) is what makes the
// gating and parallel-branch semantics checkable: cycles and dangling needs
// are load-time errors, and execution waves fall out of the topology.
type DAG struct {
	jobs  map[string]*domain.Job
	order []string   // topological order
	waves [][]string // jobs grouped by dependency depth
}

// BuildDAG validates the job set and computes a topological order.
// It rejects duplicate IDs, unknown needs references and cycles.
func BuildDAG(jobs []domain.Job) (*DAG, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("workflow has no jobs")
	}

	d := &DAG{jobs: make(map[string]*domain.Job, len(jobs))}
	for i := range jobs {
		job := &jobs[i]
		if job.ID == "" {
			return nil, fmt.Errorf("job at index %d has no id", i)
		}
		if _, dup := d.jobs[job.ID]; dup {
			return nil, fmt.Errorf("duplicate job id %q", job.ID)
		}
		d.jobs[job.ID] = job
	}

	indegree := make(map[string]int, len(jobs))
	dependents := make(map[string][]string)
	for id, job := range d.jobs {
		indegree[id] += 0
		for _, need := range job.Needs {
			if _, ok := d.jobs[need]; !ok {
				return nil, fmt.Errorf("job %q needs unknown job %q", id, need)
			}
			if need == id {
				return nil, fmt.Errorf("job %q depends on itself", id)
			}
			indegree[id]++
			dependents[need] = append(dependents[need], id)
		}
	}

	// Kahn's algorithm, wave by wave. Sorting each wave keeps the order
	// deterministic for rendering and tests.
	ready := make([]string, 0, len(jobs))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	for len(ready) > 0 {
		sort.Strings(ready)
		wave := ready
		ready = nil
		d.waves = append(d.waves, wave)
		d.order = append(d.order, wave...)
		for _, id := range wave {
			for _, dep := range dependents[id] {
				indegree[dep]--
				if indegree[dep] == 0 {
					ready = append(ready, dep)
				}
			}
		}
	}

	if len(d.order) != len(d.jobs) {
		return nil, fmt.Errorf("dependency cycle detected among jobs")
	}
	return d, nil
}

// Job returns the job definition for an ID.
func (d *DAG) Job(id string) *domain.Job {
	return d.jobs[id]
}

// Order returns job IDs in topological order.
func (d *DAG) Order() []string {
	return d.order
}

// Waves returns jobs grouped by dependency depth. Jobs within a wave have no
// edges between each other and may run concurrently.
func (d *DAG) Waves() [][]string {
	return d.waves
}
