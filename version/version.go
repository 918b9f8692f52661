// Package version derives the version identifier a pipeline run embeds into
// its artifact names and the version-manifest file.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/arobison203/autoortho/errors"
	"github.com/arobison203/autoortho/trigger"
)

// Resolve derives the version string for a run from its triggering event.
// Branch pushes resolve to the branch name, pull requests to the head branch
// name, and tag pushes to the tag name exactly. The result is sanitized so it
// is safe to embed into filenames; refs that are already filesystem-safe pass
// through verbatim.
//
// Resolution fails for events with no resolvable ref: artifact naming is
// never attempted with an empty string.
func Resolve(event trigger.Event) (string, error) {
	if err := event.Validate(); err != nil {
		return "", err
	}

	v := Sanitize(event.Ref)
	if v == "" {
		return "", errors.Newf(errors.CodeInvalidTrigger, "ref %q sanitizes to an empty version", event.Ref)
	}
	return v, nil
}

// unsafe holds the characters replaced during sanitization: path separators,
// shell-hostile punctuation, and anything Windows forbids in filenames.
const unsafe = `/\:*?"<>|`

// Sanitize maps a ref name onto a filesystem-safe version string.
// Unsafe characters and whitespace become single dashes; leading and trailing
// dashes and dots are trimmed.
func Sanitize(ref string) string {
	var b strings.Builder
	b.Grow(len(ref))
	for _, r := range ref {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(unsafe, r) || r == ' ' || r == '\t' {
			b.WriteByte('-')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "-.")
}

// IsSemVer reports whether v parses as a semantic version, with or without a
// leading "v". Used to decide whether release notes can be computed against a
// previous tag.
func IsSemVer(v string) bool {
	_, err := semver.NewVersion(v)
	return err == nil
}
