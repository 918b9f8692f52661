package trigger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arobison203/autoortho/errors"
)

// setupCheckout creates an on-disk repository with a single commit on the
// default branch and returns its path together with the repository handle.
func setupCheckout(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err, "failed to init test repository")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("# autoortho\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.py")
	require.NoError(t, err)

	_, err = wt.Commit("Initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err, "failed to create initial commit")

	return dir, repo
}

func TestDetectBranchCheckout(t *testing.T) {
	dir, _ := setupCheckout(t)

	event, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, EventPush, event.Kind)
	assert.Equal(t, "main", event.Ref)
}

func TestDetectLightweightTag(t *testing.T) {
	dir, repo := setupCheckout(t)

	head, err := repo.Head()
	require.NoError(t, err)

	_, err = repo.CreateTag("v1.2.0", head.Hash(), nil)
	require.NoError(t, err)

	// Detach HEAD at the tagged commit, as CI checkouts of a tag do.
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{Hash: head.Hash()}))

	event, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, EventTag, event.Kind)
	assert.Equal(t, "v1.2.0", event.Ref)
}

func TestDetectAnnotatedTag(t *testing.T) {
	dir, repo := setupCheckout(t)

	head, err := repo.Head()
	require.NoError(t, err)

	_, err = repo.CreateTag("v2.0.0", head.Hash(), &gogit.CreateTagOptions{
		Tagger:  &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
		Message: "Release version 2.0.0",
	})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{Hash: head.Hash()}))

	event, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, EventTag, event.Kind)
	assert.Equal(t, "v2.0.0", event.Ref)
}

func TestDetectNotARepository(t *testing.T) {
	_, err := Detect(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidTrigger, errors.Code(err))
}
