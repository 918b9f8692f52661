// Package archive wraps raw windows artifacts into the final compressed
// distributable by driving the external archiving tool.
package archive

import (
	"context"
	"log/slog"
	"path"

	"github.com/go-git/go-billy/v5"

	"github.com/arobison203/autoortho/build"
	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/executor"
	"github.com/arobison203/autoortho/internal/logging"
)

// Packager produces the windows distributable archive. Packaging runs
// strictly after a successful build and is never invoked for linux, whose
// single binary is published unpackaged. A failed archiving run is fatal to
// the windows job; there are no retries.
type Packager struct {
	// Exec runs the archiving tool. Required.
	Exec executor.Runner

	// FS is the filesystem the artifacts live on. Required.
	FS billy.Filesystem

	// Program is the archiving tool. Defaults to "zip".
	Program string

	// WorkDir is the directory the tool runs in, so the relative artifact
	// paths resolve against the same root as FS. Empty means inherit.
	WorkDir string

	Logger *slog.Logger
}

// Package archives the given artifacts into autoortho_win_<version>.zip next
// to the first input and returns the archive artifact. The inputs must
// contain at minimum the windows executable.
func (p *Packager) Package(ctx context.Context, version string, inputs ...build.Artifact) (*build.Artifact, error) {
	if len(inputs) == 0 {
		return nil, errors.New(errors.CodePackageFailed, "no input artifacts to package")
	}
	for _, in := range inputs {
		if in.Platform != build.PlatformWindows {
			return nil, errors.Newf(errors.CodePackageFailed,
				"packaging is a windows-only step, got %s artifact %s", in.Platform, in.Path)
		}
	}

	logger := logging.Ensure(p.Logger).With("platform", "windows", "version", version)

	dest := path.Join(path.Dir(inputs[0].Path), build.WindowsArchiveName(version))
	args := []string{"-j", dest}
	for _, in := range inputs {
		args = append(args, in.Path)
	}

	program := p.Program
	if program == "" {
		program = "zip"
	}

	logger.Info("packaging artifacts", "archive", dest, "inputs", len(inputs))
	if _, err := p.Exec.Run(ctx, program, args, executor.WithWorkingDir(p.WorkDir)); err != nil {
		return nil, errors.Wrapf(errors.CodePackageFailed, err, "archiving %s", dest)
	}

	if _, err := p.FS.Stat(dest); err != nil {
		return nil, errors.Wrapf(errors.CodePackageFailed, err,
			"archiver succeeded but archive %s is missing", dest)
	}

	return &build.Artifact{
		Platform: build.PlatformWindows,
		Kind:     build.KindArchive,
		Path:     dest,
	}, nil
}
