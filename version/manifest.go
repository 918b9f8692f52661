package version

import (
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/arobison203/autoortho/errors"
)

// ManifestPath is the fixed relative path of the version-manifest file inside
// the source tree. The build recipe reads it before compilation so the
// compiled artifact can self-report its version.
const ManifestPath = "autoortho/.version"

// WriteManifest persists the resolved version string verbatim (no trailing
// newline) to the manifest path within fsys. It must run before the build
// step is invoked.
func WriteManifest(fsys billy.Filesystem, v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New(errors.CodeInvalidTrigger, "refusing to write an empty version manifest")
	}
	if err := util.WriteFile(fsys, ManifestPath, []byte(v), 0o644); err != nil {
		return errors.Wrapf(errors.CodeSetupFailed, err, "writing version manifest %s", ManifestPath)
	}
	return nil
}

// ReadManifest returns the version string recorded in the manifest file, with
// surrounding whitespace trimmed to tolerate tools that append a newline.
func ReadManifest(fsys billy.Filesystem) (string, error) {
	f, err := fsys.Open(ManifestPath)
	if err != nil {
		return "", errors.Wrapf(errors.CodeNotFound, err, "opening version manifest %s", ManifestPath)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.Wrapf(errors.CodeSetupFailed, err, "reading version manifest %s", ManifestPath)
	}
	return strings.TrimSpace(string(data)), nil
}
