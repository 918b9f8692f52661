package archive

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arobison203/autoortho/build"
	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/executor"
)

type fakeZip struct {
	fs    billy.Filesystem
	calls [][]string
	fail  bool
}

func (f *fakeZip) Run(
	_ context.Context,
	program string,
	args []string,
	_ ...executor.Option,
) (*executor.Result, error) {
	f.calls = append(f.calls, append([]string{program}, args...))
	if f.fail {
		return &executor.Result{ExitCode: 15}, fmt.Errorf("command %s failed: exit status 15", program)
	}
	// args[1] is the destination archive.
	if err := util.WriteFile(f.fs, args[1], []byte("zip"), 0o644); err != nil {
		return nil, err
	}
	return &executor.Result{ExitCode: 0}, nil
}

func winExe(version string) build.Artifact {
	return build.Artifact{
		Platform: build.PlatformWindows,
		Kind:     build.KindExecutable,
		Path:     "dist/" + build.WindowsExecutableName(version),
	}
}

func TestPackageWindowsExecutable(t *testing.T) {
	fs := memfs.New()
	zip := &fakeZip{fs: fs}
	packager := &Packager{Exec: zip, FS: fs}

	artifact, err := packager.Package(context.Background(), "v1.2.0", winExe("v1.2.0"))
	require.NoError(t, err)

	assert.Equal(t, build.PlatformWindows, artifact.Platform)
	assert.Equal(t, build.KindArchive, artifact.Kind)
	assert.Equal(t, "dist/autoortho_win_v1.2.0.zip", artifact.Path)

	require.Len(t, zip.calls, 1)
	assert.Equal(t,
		[]string{"zip", "-j", "dist/autoortho_win_v1.2.0.zip", "dist/AutoOrtho_v1.2.0.exe"},
		zip.calls[0],
	)
}

func TestPackageRejectsLinuxArtifacts(t *testing.T) {
	fs := memfs.New()
	zip := &fakeZip{fs: fs}
	packager := &Packager{Exec: zip, FS: fs}

	_, err := packager.Package(context.Background(), "main", build.Artifact{
		Platform: build.PlatformLinux,
		Kind:     build.KindBinary,
		Path:     "dist/autoortho_lin_main.bin",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodePackageFailed, errors.Code(err))
	assert.Empty(t, zip.calls, "archiver must not run for linux artifacts")
}

func TestPackageRejectsEmptyInputs(t *testing.T) {
	packager := &Packager{Exec: &fakeZip{fs: memfs.New()}, FS: memfs.New()}
	_, err := packager.Package(context.Background(), "main")
	require.Error(t, err)
	assert.Equal(t, errors.CodePackageFailed, errors.Code(err))
}

func TestPackageArchiverFailureIsFatal(t *testing.T) {
	fs := memfs.New()
	zip := &fakeZip{fs: fs, fail: true}
	packager := &Packager{Exec: zip, FS: fs}

	_, err := packager.Package(context.Background(), "v1.2.0", winExe("v1.2.0"))
	require.Error(t, err)
	assert.Equal(t, errors.CodePackageFailed, errors.Code(err))
	assert.Len(t, zip.calls, 1, "no retry after archiver failure")
}
