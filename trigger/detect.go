package trigger

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/arobison203/autoortho/errors"
)

// Detect inspects the checkout at path and synthesizes the triggering event
// from HEAD. A checked-out branch maps to a push event; a detached HEAD
// pointing at a tagged commit maps to a tag event for that tag. This lets the
// engine run against a plain working copy, outside any hosted CI environment.
//
// Pull-request events cannot be detected from a checkout alone; they must be
// supplied explicitly by the invoking platform.
func Detect(path string) (Event, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Event{}, errors.Wrapf(errors.CodeInvalidTrigger, err, "opening repository at %q", path)
	}

	head, err := repo.Head()
	if err != nil {
		return Event{}, errors.Wrap(errors.CodeInvalidTrigger, err, "resolving HEAD")
	}

	if head.Name().IsBranch() {
		return Event{Kind: EventPush, Ref: head.Name().Short()}, nil
	}

	// Detached HEAD: look for a tag pointing at the HEAD commit.
	tag, err := tagAt(repo, head.Hash())
	if err != nil {
		return Event{}, err
	}
	if tag != "" {
		return Event{Kind: EventTag, Ref: tag}, nil
	}

	return Event{}, errors.New(errors.CodeInvalidTrigger, "HEAD is detached and no tag points at it")
}

// tagAt returns the name of a tag whose target is the given commit, or "" if
// none exists. Both lightweight and annotated tags are considered.
func tagAt(repo *gogit.Repository, hash plumbing.Hash) (string, error) {
	refs, err := repo.References()
	if err != nil {
		return "", errors.Wrap(errors.CodeInvalidTrigger, err, "listing references")
	}

	var found string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if found != "" || !ref.Name().IsTag() {
			return nil
		}
		target := ref.Hash()
		if tagObj, tagErr := repo.TagObject(ref.Hash()); tagErr == nil {
			// Annotated tag: follow the tag object to its commit.
			target = tagObj.Target
		}
		if target == hash {
			found = ref.Name().Short()
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(errors.CodeInvalidTrigger, err, "iterating tags")
	}
	return found, nil
}
