package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// CommitState is the status reported back onto a triggering commit.
type CommitState string

const (
	CommitPending CommitState = "pending"
	CommitSuccess CommitState = "success"
	CommitFailure CommitState = "failure"
)

// Forge is the write surface of the hosting system. It covers the two shared
// mutable resources of the whole design: the release namespace and commit
// statuses. Credentials are supplied by the environment, never minted here.
type Forge interface {
	// CreateRelease publishes a release record for rel.Tag with rel.Body as
	// the human-readable notes. Returns domain.ErrReleaseExists when the tag
	// already has a release.
	CreateRelease(ctx context.Context, rel domain.Release) error

	// UploadAsset attaches the file at path to the release for tag.
	UploadAsset(ctx context.Context, tag, path string) error

	// ReportStatus surfaces a pipeline outcome on the commit.
	ReportStatus(ctx context.Context, sha string, state CommitState, description string) error
}
