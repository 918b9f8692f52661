// Package publish uploads build outputs to run-scoped storage and, for tag
// triggers, attaches them to a permanent versioned release.
package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/arobison203/autoortho/build"
	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/internal/logging"
	"github.com/arobison203/autoortho/trigger"
)

// Store is run-scoped artifact storage: uploads are keyed by a fixed
// per-platform label and survive only as long as the storage retention for
// the run, not across releases.
type Store interface {
	// Upload stores the files under the given label and returns an opaque
	// handle identifying the uploaded set.
	Upload(ctx context.Context, label string, paths []string) (string, error)
}

// Releaser publishes files as a permanent release attached to a tag.
type Releaser interface {
	// Publish attaches the files to the release for tag, creating the
	// release if it does not exist yet. Notes become the release body on
	// creation.
	Publish(ctx context.Context, tag, notes string, paths []string) (*ReleaseRecord, error)
}

// ReleaseRecord describes a published release. It is one-to-one with the
// triggering tag and immutable once published.
type ReleaseRecord struct {
	// Tag is the tag the release is attached to.
	Tag string

	// Assets are the artifact filenames attached to the release.
	Assets []string

	// URL is the release's web location, when the release API reports one.
	URL string

	// PublishedAt is when the release was created or the assets attached.
	PublishedAt time.Time
}

// Publisher runs the two publication paths for a single platform job:
// transient upload on every run, release publication only when the policy
// authorizes it.
type Publisher struct {
	// Store receives every run's artifacts. Required.
	Store Store

	// Releaser receives tagged runs' artifacts. Required when the release
	// policy can be selected.
	Releaser Releaser

	Logger *slog.Logger
}

// Result reports what a publication did.
type Result struct {
	// Handle is the transient storage handle for the uploaded artifact set.
	Handle string

	// Release is set only when release publication ran.
	Release *ReleaseRecord
}

// Publish uploads the artifacts transiently under the platform's storage
// label and, for the release policy, additionally attaches them to the
// release for the triggering tag. Release publication never runs for the
// transient-only policy.
func (p *Publisher) Publish(
	ctx context.Context,
	policy trigger.PublicationPolicy,
	platform build.Platform,
	tag, notes string,
	artifacts []build.Artifact,
) (*Result, error) {
	if len(artifacts) == 0 {
		return nil, errors.New(errors.CodePublishFailed, "no artifacts to publish")
	}

	logger := logging.Ensure(p.Logger).With("platform", platform.String(), "policy", policy.String())

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		paths = append(paths, a.Path)
	}

	label := platform.StorageLabel()
	handle, err := p.Store.Upload(ctx, label, paths)
	if err != nil {
		return nil, errors.Wrapf(errors.CodePublishFailed, err, "transient upload under label %s", label)
	}
	logger.Info("uploaded artifacts to run storage", "label", label, "count", len(paths), "handle", handle)

	result := &Result{Handle: handle}
	if policy != trigger.PolicyTransientAndRelease {
		return result, nil
	}

	if p.Releaser == nil {
		return nil, errors.New(errors.CodePublishFailed, "release policy selected but no releaser configured")
	}
	record, err := p.Releaser.Publish(ctx, tag, notes, paths)
	if err != nil {
		return nil, errors.Wrapf(errors.CodePublishFailed, err, "publishing release for tag %s", tag)
	}
	logger.Info("published release", "tag", record.Tag, "assets", len(record.Assets))

	result.Release = record
	return result, nil
}
