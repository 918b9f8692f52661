package build

import (
	"context"
	"log/slog"
	"path"

	"github.com/go-git/go-billy/v5"

	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/executor"
	"github.com/arobison203/autoortho/internal/logging"
)

// windowsToolchain lists the programs the windows recipe requires before it
// can be invoked: the mingw cross-compiler suite and the scripting runtime
// that drives the installer build.
var windowsToolchain = []string{"x86_64-w64-mingw32-gcc", "python3"}

// Runner invokes a platform's build recipe and verifies the artifact it is
// contracted to produce. Every invocation is a full rebuild; the runner does
// no caching and gives no incremental-build guarantees.
type Runner struct {
	// Exec runs the recipe command. Required.
	Exec executor.Runner

	// FS is the filesystem the source tree and dist directory live on.
	// Required; tests use an in-memory filesystem.
	FS billy.Filesystem

	// SourceDir is the directory containing the build recipe (Makefile),
	// relative to FS. Empty means the filesystem root.
	SourceDir string

	// DistDir is where recipes drop their artifacts, relative to FS.
	// Defaults to "dist".
	DistDir string

	// Program is the recipe runner program. Defaults to "make".
	Program string

	// Probe reports whether a required program is available. Defaults to a
	// PATH lookup; tests substitute their own.
	Probe func(program string) error

	Logger *slog.Logger
}

// Build runs the platform's recipe with the resolved version and returns the
// raw artifact it produced. A failed toolchain preflight aborts before the
// recipe is attempted; a non-zero recipe exit is fatal to this platform's job
// and does not affect sibling platforms.
func (r *Runner) Build(ctx context.Context, platform Platform, version string) (*Artifact, error) {
	logger := logging.Ensure(r.Logger).With("platform", platform.String(), "version", version)

	if err := r.preflight(platform); err != nil {
		return nil, err
	}

	target := platform.RecipeTarget()
	logger.Info("invoking build recipe", "target", target)

	program := r.Program
	if program == "" {
		program = "make"
	}

	_, err := r.Exec.Run(ctx, program, []string{target, "VERSION=" + version},
		executor.WithWorkingDir(r.SourceDir),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeBuildFailed, err, "%s recipe target %s", platform, target)
	}

	artifact := r.expectedArtifact(platform, version)
	if _, err := r.FS.Stat(artifact.Path); err != nil {
		return nil, errors.Wrapf(errors.CodeBuildFailed, err,
			"%s recipe succeeded but artifact %s is missing", platform, artifact.Path)
	}

	logger.Info("build recipe completed", "artifact", artifact.Path)
	return &artifact, nil
}

// preflight verifies the platform's toolchain prerequisites are installed.
// Linux needs nothing beyond the recipe runner; windows needs the
// cross-compiler suite and scripting runtime present before invocation.
func (r *Runner) preflight(platform Platform) error {
	probe := r.Probe
	if probe == nil {
		probe = executor.LookPath
	}

	if platform == PlatformWindows {
		for _, program := range windowsToolchain {
			if err := probe(program); err != nil {
				return errors.Wrapf(errors.CodeSetupFailed, err, "windows toolchain prerequisite %s", program)
			}
		}
	}
	return nil
}

func (r *Runner) expectedArtifact(platform Platform, version string) Artifact {
	distDir := r.DistDir
	if distDir == "" {
		distDir = "dist"
	}

	switch platform {
	case PlatformWindows:
		return Artifact{
			Platform: PlatformWindows,
			Kind:     KindExecutable,
			Path:     path.Join(distDir, WindowsExecutableName(version)),
		}
	default:
		return Artifact{
			Platform: PlatformLinux,
			Kind:     KindBinary,
			Path:     path.Join(distDir, LinuxBinaryName(version)),
		}
	}
}
