package build

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/executor"
)

// fakeExec records recipe invocations and simulates the recipe dropping its
// artifact into the dist directory.
type fakeExec struct {
	fs       billy.Filesystem
	calls    [][]string
	fail     bool
	produces string
}

func (f *fakeExec) Run(
	_ context.Context,
	program string,
	args []string,
	_ ...executor.Option,
) (*executor.Result, error) {
	f.calls = append(f.calls, append([]string{program}, args...))
	if f.fail {
		return &executor.Result{ExitCode: 2}, fmt.Errorf("command %s failed: exit status 2", program)
	}
	if f.produces != "" {
		if err := util.WriteFile(f.fs, f.produces, []byte("artifact"), 0o755); err != nil {
			return nil, err
		}
	}
	return &executor.Result{ExitCode: 0}, nil
}

func okProbe(string) error { return nil }

func TestBuildLinux(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs, produces: "dist/autoortho_lin_main.bin"}
	runner := &Runner{Exec: exec, FS: fs, Probe: okProbe}

	artifact, err := runner.Build(context.Background(), PlatformLinux, "main")
	require.NoError(t, err)

	assert.Equal(t, PlatformLinux, artifact.Platform)
	assert.Equal(t, KindBinary, artifact.Kind)
	assert.Equal(t, "dist/autoortho_lin_main.bin", artifact.Path)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, []string{"make", "lin_bin", "VERSION=main"}, exec.calls[0])
}

func TestBuildWindows(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs, produces: "dist/AutoOrtho_v1.2.0.exe"}
	runner := &Runner{Exec: exec, FS: fs, Probe: okProbe}

	artifact, err := runner.Build(context.Background(), PlatformWindows, "v1.2.0")
	require.NoError(t, err)

	assert.Equal(t, PlatformWindows, artifact.Platform)
	assert.Equal(t, KindExecutable, artifact.Kind)
	assert.Equal(t, "dist/AutoOrtho_v1.2.0.exe", artifact.Path)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, []string{"make", "win_exe", "VERSION=v1.2.0"}, exec.calls[0])
}

func TestBuildEmbedsVersionVerbatim(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs, produces: "dist/autoortho_lin_feature-x.bin"}
	runner := &Runner{Exec: exec, FS: fs, Probe: okProbe}

	artifact, err := runner.Build(context.Background(), PlatformLinux, "feature-x")
	require.NoError(t, err)
	assert.Contains(t, artifact.Path, "feature-x")
}

func TestBuildFailureIsFatal(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs, fail: true}
	runner := &Runner{Exec: exec, FS: fs, Probe: okProbe}

	_, err := runner.Build(context.Background(), PlatformLinux, "main")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBuildFailed, errors.Code(err))
}

func TestBuildMissingArtifactIsFatal(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs} // recipe "succeeds" but drops nothing
	runner := &Runner{Exec: exec, FS: fs, Probe: okProbe}

	_, err := runner.Build(context.Background(), PlatformLinux, "main")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBuildFailed, errors.Code(err))
}

func TestWindowsPreflightFailureAbortsBeforeRecipe(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs}
	runner := &Runner{
		Exec: exec,
		FS:   fs,
		Probe: func(program string) error {
			return fmt.Errorf("program %q not found on PATH", program)
		},
	}

	_, err := runner.Build(context.Background(), PlatformWindows, "main")
	require.Error(t, err)
	assert.Equal(t, errors.CodeSetupFailed, errors.Code(err))
	assert.Empty(t, exec.calls, "recipe must not be attempted after preflight failure")
}

func TestLinuxSkipsWindowsToolchainProbes(t *testing.T) {
	fs := memfs.New()
	exec := &fakeExec{fs: fs, produces: "dist/autoortho_lin_main.bin"}
	probed := 0
	runner := &Runner{
		Exec: exec,
		FS:   fs,
		Probe: func(string) error {
			probed++
			return nil
		},
	}

	_, err := runner.Build(context.Background(), PlatformLinux, "main")
	require.NoError(t, err)
	assert.Zero(t, probed)
}
