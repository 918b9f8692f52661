package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arobison203/autoortho/archive"
	"github.com/arobison203/autoortho/build"
	"github.com/arobison203/autoortho/config"
	"github.com/arobison203/autoortho/executor"
	"github.com/arobison203/autoortho/pipeline"
	"github.com/arobison203/autoortho/publish"
	"github.com/arobison203/autoortho/trigger"
	"github.com/arobison203/autoortho/version"
)

// resolveEvent builds the triggering event from flags, falling back to
// inspecting the checkout when no explicit event was supplied.
func resolveEvent(kindFlag, refFlag, sourceDir string) (trigger.Event, error) {
	if kindFlag == "" && refFlag == "" {
		return trigger.Detect(sourceDir)
	}
	if kindFlag == "" || refFlag == "" {
		return trigger.Event{}, fmt.Errorf("--event and --ref must be supplied together")
	}
	kind, err := trigger.ParseKind(kindFlag)
	if err != nil {
		return trigger.Event{}, err
	}
	return trigger.Event{Kind: kind, Ref: refFlag}, nil
}

func newRunCommand(logger *slog.Logger, configPath *string) *cobra.Command {
	var (
		eventKind string
		eventRef  string
		runID     string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full pipeline for the triggering event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			event, err := resolveEvent(eventKind, eventRef, cfg.SourceDir)
			if err != nil {
				return err
			}

			plan, err := trigger.Route(event)
			if err != nil {
				return err
			}

			if runID == "" {
				runID = uuid.NewString()
			}

			engine, err := buildEngine(cmd, cfg, plan, runID, dryRun, logger)
			if err != nil {
				return err
			}

			report, err := engine.Run(cmd.Context(), plan)
			if err != nil {
				return err
			}

			printReport(cmd, report)
			return report.Err()
		},
	}

	cmd.Flags().StringVar(&eventKind, "event", "", "Trigger kind (push-to-branch, pull-request, push-tag); detected from the checkout when omitted")
	cmd.Flags().StringVar(&eventRef, "ref", "", "Trigger ref (branch, PR head branch, or tag)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier for transient storage (defaults to a random UUID)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build and package but skip all publication")
	return cmd
}

// buildEngine wires the pipeline's step implementations from configuration.
func buildEngine(
	cmd *cobra.Command,
	cfg *config.Config,
	plan *trigger.Plan,
	runID string,
	dryRun bool,
	logger *slog.Logger,
) (*pipeline.Engine, error) {
	fs := osfs.New(cfg.SourceDir)
	exec := executor.NewLocal()

	builder := &build.Runner{
		Exec:      exec,
		FS:        fs,
		SourceDir: cfg.SourceDir,
		DistDir:   cfg.DistDir,
		Program:   cfg.Recipe.Program,
		Logger:    logger.With("component", "build"),
	}

	packager := &archive.Packager{
		Exec:    exec,
		FS:      fs,
		Program: cfg.Recipe.Archiver,
		WorkDir: cfg.SourceDir,
		Logger:  logger.With("component", "archive"),
	}

	engine := &pipeline.Engine{
		Builder:  builder,
		Packager: packager,
		FS:       fs,
		RunID:    runID,
		Logger:   logger.With("component", "pipeline"),
	}

	if dryRun {
		engine.Publisher = noopPublisher{}
		return engine, nil
	}

	release := plan.Policy == trigger.PolicyTransientAndRelease
	if err := cfg.ValidateForPublish(release); err != nil {
		return nil, err
	}

	store, err := publish.NewS3Store(cmd.Context(), cfg.Storage.Bucket, cfg.Storage.Region, runID,
		publish.WithFilesystem(fs))
	if err != nil {
		return nil, err
	}

	publisher := &publish.Publisher{
		Store:  store,
		Logger: logger.With("component", "publish"),
	}

	if release {
		releaser, err := publish.NewGitHubReleaser(publish.GitHubConfig{
			Owner: cfg.Release.Owner,
			Repo:  cfg.Release.Repo,
			Token: cfg.Release.Token,
		}, nil)
		if err != nil {
			return nil, err
		}
		releaser.SetFilesystem(fs)
		publisher.Releaser = releaser

		notes := &publish.NotesGenerator{Path: cfg.SourceDir}
		engine.Notes = notes.Generate
	}

	engine.Publisher = publisher
	return engine, nil
}

func printReport(cmd *cobra.Command, report *pipeline.RunReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s version %s policy %s\n", report.RunID, report.Version, report.Policy)
	for _, job := range report.Jobs {
		if job.Err != nil {
			fmt.Fprintf(out, "  %s: FAILED: %v\n", job.Platform, job.Err)
			continue
		}
		paths := make([]string, 0, len(job.Artifacts))
		for _, a := range job.Artifacts {
			paths = append(paths, a.Path)
		}
		fmt.Fprintf(out, "  %s: ok (%s)\n", job.Platform, strings.Join(paths, ", "))
		if job.Publication != nil && job.Publication.Release != nil {
			fmt.Fprintf(out, "    release %s: %s\n",
				job.Publication.Release.Tag, strings.Join(job.Publication.Release.Assets, ", "))
		}
	}
}

// noopPublisher satisfies the publisher contract for dry runs.
type noopPublisher struct{}

func (noopPublisher) Publish(
	_ context.Context,
	_ trigger.PublicationPolicy,
	_ build.Platform,
	_, _ string,
	_ []build.Artifact,
) (*publish.Result, error) {
	return &publish.Result{Handle: "dry-run"}, nil
}

func newPlanCommand(configPath *string) *cobra.Command {
	var (
		eventKind string
		eventRef  string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a trigger would build and publish, without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			event, err := resolveEvent(eventKind, eventRef, cfg.SourceDir)
			if err != nil {
				return err
			}

			plan, err := trigger.Route(event)
			if err != nil {
				return err
			}

			v, err := version.Resolve(plan.Event)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trigger: %s %s\n", plan.Event.Kind, plan.Event.Ref)
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "policy: %s\n", plan.Policy)
			fmt.Fprintf(out, "artifacts:\n")
			fmt.Fprintf(out, "  linux: %s (label linbin)\n", build.LinuxBinaryName(v))
			fmt.Fprintf(out, "  windows: %s, %s (label winbin)\n",
				build.WindowsExecutableName(v), build.WindowsArchiveName(v))
			if version.IsSemVer(v) && plan.Event.Kind != trigger.EventTag {
				fmt.Fprintf(out, "note: ref parses as a version but the trigger is not a tag push; no release will be created\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventKind, "event", "", "Trigger kind (push-to-branch, pull-request, push-tag)")
	cmd.Flags().StringVar(&eventRef, "ref", "", "Trigger ref (branch, PR head branch, or tag)")
	return cmd
}

func newResolveCommand() *cobra.Command {
	var (
		eventKind string
		eventRef  string
		sourceDir string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the version string a trigger resolves to",
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := resolveEvent(eventKind, eventRef, sourceDir)
			if err != nil {
				return err
			}
			v, err := version.Resolve(event)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.Flags().StringVar(&eventKind, "event", "", "Trigger kind (push-to-branch, pull-request, push-tag)")
	cmd.Flags().StringVar(&eventRef, "ref", "", "Trigger ref (branch, PR head branch, or tag)")
	cmd.Flags().StringVar(&sourceDir, "source", ".", "Checkout to detect the trigger from when --event is omitted")
	return cmd
}
