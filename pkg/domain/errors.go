package domain

import "errors"

// ErrReleaseExists is returned when a release for the tag already exists.
// Policy is reject, not overwrite: a published release is immutable.
var ErrReleaseExists = errors.New("release already exists for tag")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrNoArtifact is returned when a release build completed but produced no
// artifact at the declared output path.
var ErrNoArtifact = errors.New("build produced no artifact at declared path")

// ErrSkipRequested is returned by Dispatch when the head commit message
// carries the skip marker (bot-commit feedback-loop guard).
var ErrSkipRequested = errors.New("run skipped by commit marker")
