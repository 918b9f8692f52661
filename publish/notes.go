package publish

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/arobison203/autoortho/errors"
)

// NotesGenerator builds the release body from the commit log between the
// previous semver tag and the released tag. Commits following the
// conventional-commits format are grouped into sections; the rest land under
// "Other changes".
type NotesGenerator struct {
	// Path is the checkout the history is read from.
	Path string
}

// Generate returns markdown release notes for the tag. When the tag is not a
// semantic version, or no earlier semver tag exists, the notes carry only the
// release header.
func (g *NotesGenerator) Generate(tag string) (string, error) {
	header := "## AutoOrtho " + tag + "\n"

	current, err := semver.NewVersion(tag)
	if err != nil {
		return header, nil
	}

	repo, err := gogit.PlainOpenWithOptions(g.Path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errors.Wrapf(errors.CodePublishFailed, err, "opening repository at %q", g.Path)
	}

	tagHashes, err := semverTagHashes(repo)
	if err != nil {
		return "", err
	}

	currentHash, ok := tagHashes[current.Original()]
	if !ok {
		return "", errors.Newf(errors.CodePublishFailed, "tag %s not found in repository", tag)
	}

	prev := previousVersion(tagHashes, current)
	if prev == "" {
		return header, nil
	}

	lines, err := commitSubjects(repo, currentHash, tagHashes[prev])
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(fmt.Sprintf("\nChanges since %s.\n", prev))
	writeSections(&b, lines)
	return b.String(), nil
}

// semverTagHashes maps each semver tag name to the commit it points at,
// following annotated tags to their targets.
func semverTagHashes(repo *gogit.Repository) (map[string]plumbing.Hash, error) {
	refs, err := repo.References()
	if err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "listing references")
	}

	hashes := make(map[string]plumbing.Hash)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsTag() {
			return nil
		}
		name := ref.Name().Short()
		if _, verr := semver.NewVersion(name); verr != nil {
			return nil
		}
		target := ref.Hash()
		if tagObj, terr := repo.TagObject(ref.Hash()); terr == nil {
			target = tagObj.Target
		}
		hashes[name] = target
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "iterating tags")
	}
	return hashes, nil
}

// previousVersion returns the greatest semver tag strictly below current,
// or "" when none exists.
func previousVersion(tags map[string]plumbing.Hash, current *semver.Version) string {
	var candidates []*semver.Version
	for name := range tags {
		v, err := semver.NewVersion(name)
		if err != nil || !v.LessThan(current) {
			continue
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Sort(semver.Collection(candidates))
	return candidates[len(candidates)-1].Original()
}

// commitSubjects collects commit subject lines walking from the released
// commit back to (but excluding) the previous release's commit.
func commitSubjects(repo *gogit.Repository, from, until plumbing.Hash) ([]string, error) {
	iter, err := repo.Log(&gogit.LogOptions{From: from})
	if err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "reading commit log")
	}
	defer iter.Close()

	var subjects []string
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == until {
			return storer.ErrStop
		}
		subject := strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]
		if subject != "" {
			subjects = append(subjects, subject)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodePublishFailed, err, "iterating commits")
	}
	return subjects, nil
}

// writeSections groups subjects into Features / Fixes / Other changes using
// the conventional-commits grammar.
func writeSections(b *strings.Builder, subjects []string) {
	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))

	var features, fixes, other []string
	for _, subject := range subjects {
		msg, err := machine.Parse([]byte(subject))
		cc, ok := msg.(*conventionalcommits.ConventionalCommit)
		if err != nil || !ok {
			other = append(other, subject)
			continue
		}
		switch cc.Type {
		case "feat":
			features = append(features, cc.Description)
		case "fix":
			fixes = append(fixes, cc.Description)
		default:
			other = append(other, subject)
		}
	}

	writeSection(b, "Features", features)
	writeSection(b, "Fixes", fixes)
	writeSection(b, "Other changes", other)
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n### " + title + "\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}
