// Package build invokes the per-platform build recipes and names the raw
// artifacts they produce.
package build

import (
	"github.com/arobison203/autoortho/errors"
)

// Platform identifies a build target. The set is fixed: each platform has
// exactly one build recipe, and windows is the only platform with a
// packaging step.
type Platform string

const (
	// PlatformLinux produces a single self-contained binary.
	PlatformLinux Platform = "linux"

	// PlatformWindows produces an installer-style executable, later wrapped
	// into a zip archive.
	PlatformWindows Platform = "windows"
)

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// Platforms is the fixed set of build targets, in build order.
var Platforms = []Platform{PlatformLinux, PlatformWindows}

// ParsePlatform converts a string into a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformLinux:
		return PlatformLinux, nil
	case PlatformWindows:
		return PlatformWindows, nil
	default:
		return "", errors.Newf(errors.CodeInvalidConfig, "unknown platform %q", s)
	}
}

// ArtifactKind classifies a build output.
type ArtifactKind string

const (
	// KindBinary is a plain executable binary (linux).
	KindBinary ArtifactKind = "binary"

	// KindExecutable is an installer-style executable (windows).
	KindExecutable ArtifactKind = "executable"

	// KindArchive is a compressed distributable wrapping other artifacts.
	KindArchive ArtifactKind = "archive"
)

// Artifact is a named build output. The name embeds the version string so
// consumers can disambiguate builds.
type Artifact struct {
	Platform Platform
	Kind     ArtifactKind
	Path     string
}

// Artifact naming is a fixed convention, deterministic given the version
// string. The separators are part of the convention and not renegotiable
// per build.

// LinuxBinaryName returns the linux binary filename for a version.
func LinuxBinaryName(version string) string {
	return "autoortho_lin_" + version + ".bin"
}

// WindowsExecutableName returns the windows executable filename for a version.
func WindowsExecutableName(version string) string {
	return "AutoOrtho_" + version + ".exe"
}

// WindowsArchiveName returns the windows distributable archive filename for a
// version.
func WindowsArchiveName(version string) string {
	return "autoortho_win_" + version + ".zip"
}

// StorageLabel returns the fixed per-platform label that keys transient
// artifact storage.
func (p Platform) StorageLabel() string {
	switch p {
	case PlatformWindows:
		return "winbin"
	default:
		return "linbin"
	}
}

// RecipeTarget returns the build-recipe target name for the platform.
func (p Platform) RecipeTarget() string {
	switch p {
	case PlatformWindows:
		return "win_exe"
	default:
		return "lin_bin"
	}
}
