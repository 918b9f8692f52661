// Package pipeline coordinates a run: version resolution, per-platform
// builds, packaging, and publication. One orchestration core serves both the
// continuous-build and tagged-release pipelines; the publication policy from
// the trigger plan is the only difference between them.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/arobison203/autoortho/build"
	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/internal/logging"
	"github.com/arobison203/autoortho/publish"
	"github.com/arobison203/autoortho/trigger"
	"github.com/arobison203/autoortho/version"
)

// Builder produces a platform's raw artifact.
type Builder interface {
	Build(ctx context.Context, platform build.Platform, v string) (*build.Artifact, error)
}

// Packager wraps windows artifacts into the distributable archive.
type Packager interface {
	Package(ctx context.Context, v string, inputs ...build.Artifact) (*build.Artifact, error)
}

// Publisher runs the publication paths for a platform's artifact set.
type Publisher interface {
	Publish(
		ctx context.Context,
		policy trigger.PublicationPolicy,
		platform build.Platform,
		tag, notes string,
		artifacts []build.Artifact,
	) (*publish.Result, error)
}

// Engine executes pipeline runs. Platform jobs are independent: they run in
// parallel, share no mutable state, and a failure on one platform never halts
// the other. Within a job, steps are strictly sequential and fail-fast.
type Engine struct {
	// Builder, Packager, and Publisher are the step implementations. Required.
	Builder   Builder
	Packager  Packager
	Publisher Publisher

	// FS is the source-tree filesystem the version manifest is written to.
	// Required.
	FS billy.Filesystem

	// Notes computes the release body for a tag. Optional; when nil, tagged
	// releases are published with an empty body.
	Notes func(tag string) (string, error)

	// RunID keys transient storage for this run. Defaults to a random UUID.
	RunID string

	Logger *slog.Logger
}

// JobResult is the outcome of one platform's job.
type JobResult struct {
	Platform    build.Platform
	Artifacts   []build.Artifact
	Publication *publish.Result
	Err         error
}

// RunReport is the outcome of a pipeline run: the resolved version and one
// result per platform job.
type RunReport struct {
	RunID   string
	Version string
	Policy  trigger.PublicationPolicy
	Jobs    []JobResult
}

// Err returns a non-nil error when any platform job failed. A run succeeds
// only if every job succeeded.
func (r *RunReport) Err() error {
	for _, job := range r.Jobs {
		if job.Err != nil {
			return errors.Wrapf(errors.Code(job.Err), job.Err, "%s job failed", job.Platform)
		}
	}
	return nil
}

// Run executes the plan. The version is resolved once, written to the
// version manifest before any build starts, and passed explicitly through
// every step; release notes are computed once and shared by both jobs.
//
// The returned error covers failures before any job started; per-job
// failures are reported in the RunReport.
func (e *Engine) Run(ctx context.Context, plan *trigger.Plan) (*RunReport, error) {
	runID := e.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := logging.Ensure(e.Logger).With("run_id", runID, "trigger", plan.Event.Kind.String())

	v, err := version.Resolve(plan.Event)
	if err != nil {
		return nil, err
	}
	logger.Info("resolved version", "version", v)

	if err := version.WriteManifest(e.FS, v); err != nil {
		return nil, err
	}

	var notes string
	if plan.Policy == trigger.PolicyTransientAndRelease && e.Notes != nil {
		notes, err = e.Notes(plan.Event.Ref)
		if err != nil {
			return nil, errors.Wrapf(errors.CodePublishFailed, err, "generating release notes for %s", plan.Event.Ref)
		}
	}

	report := &RunReport{
		RunID:   runID,
		Version: v,
		Policy:  plan.Policy,
		Jobs:    make([]JobResult, len(plan.Platforms)),
	}

	var wg sync.WaitGroup
	for i, name := range plan.Platforms {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			report.Jobs[i] = e.runJob(ctx, plan, name, v, notes, logger)
		}(i, name)
	}
	wg.Wait()

	return report, nil
}

// runJob executes one platform's sequential steps: build, package (windows
// only), publish. The first failing step aborts the remainder of this job.
func (e *Engine) runJob(
	ctx context.Context,
	plan *trigger.Plan,
	name, v, notes string,
	logger *slog.Logger,
) JobResult {
	platform, err := build.ParsePlatform(name)
	if err != nil {
		return JobResult{Platform: build.Platform(name), Err: err}
	}

	logger = logger.With("platform", platform.String())
	result := JobResult{Platform: platform}

	artifact, err := e.Builder.Build(ctx, platform, v)
	if err != nil {
		result.Err = err
		return result
	}
	result.Artifacts = []build.Artifact{*artifact}

	if platform == build.PlatformWindows {
		archive, err := e.Packager.Package(ctx, v, *artifact)
		if err != nil {
			result.Err = err
			return result
		}
		result.Artifacts = append(result.Artifacts, *archive)
	}

	publication, err := e.Publisher.Publish(ctx, plan.Policy, platform, plan.Event.Ref, notes, result.Artifacts)
	if err != nil {
		result.Err = err
		return result
	}
	result.Publication = publication

	logger.Info("platform job completed", "artifacts", len(result.Artifacts))
	return result
}
