package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/gantry/pkg/domain"
)

// Dispatcher is the orchestration entry point the server drives.
// Implemented by gantry.Orchestrator.
type Dispatcher interface {
	Dispatch(ctx context.Context, trig domain.Trigger) ([]*domain.RunResult, error)
}

type flight struct {
	gen    uint64
	cancel context.CancelFunc
}

// coordinator serializes dispatches per branch with cancel-in-favor-of-latest
// semantics: a new push to a branch cancels the in-flight run for that same
// branch, because its result could only describe an outdated tree. Tag pushes
// are never superseded; each tag stands alone.
type coordinator struct {
	dispatcher Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	gen      uint64
	inFlight map[string]flight
	wg       sync.WaitGroup
}

func newCoordinator(d Dispatcher, logger *slog.Logger) *coordinator {
	return &coordinator{
		dispatcher: d,
		logger:     logger,
		inFlight:   make(map[string]flight),
	}
}

func flightKey(t domain.Trigger) string {
	return string(t.Event) + ":" + t.Ref
}

// Dispatch runs the trigger asynchronously. Webhook handlers must return
// quickly; the hosting system retries on timeout, which would double-run.
func (c *coordinator) Dispatch(parent context.Context, t domain.Trigger) {
	ctx, cancel := context.WithCancel(parent)
	k := flightKey(t)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if t.Event == domain.EventPush {
		if prev, ok := c.inFlight[k]; ok {
			c.logger.Info("superseding in-flight run", "ref", t.Ref)
			prev.cancel()
		}
		c.inFlight[k] = flight{gen: gen, cancel: cancel}
	}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer func() {
			c.mu.Lock()
			// Only clear our own registration; a newer dispatch may have
			// replaced it already.
			if cur, ok := c.inFlight[k]; ok && cur.gen == gen {
				delete(c.inFlight, k)
			}
			c.mu.Unlock()
		}()

		results, err := c.dispatcher.Dispatch(ctx, t)
		if errors.Is(err, domain.ErrSkipRequested) {
			c.logger.Info("dispatch skipped", "ref", t.Ref, "reason", "skip marker")
			return
		}
		if err != nil {
			c.logger.Error("dispatch failed", "event", t.Event, "ref", t.Ref, "err", err)
			return
		}
		for _, r := range results {
			c.logger.Info("run finished", "run_id", r.RunID, "workflow", r.Workflow, "status", r.Status)
		}
	}()
}

// Wait blocks until all in-flight dispatches finish. Used by graceful
// shutdown and tests.
func (c *coordinator) Wait() {
	c.wg.Wait()
}
