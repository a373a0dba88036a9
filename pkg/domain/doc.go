/*
Package domain defines the core value types of the Gantry orchestrator:
triggers, workflow definitions, run results, releases and lifecycle events.

The types here carry no behavior beyond small accessors. Side effects live in
adapters; scheduling logic lives in the internal scheduler. Keeping the
trigger and rule types pure makes the trigger predicate unit-testable without
invoking any real tool.
*/
package domain
