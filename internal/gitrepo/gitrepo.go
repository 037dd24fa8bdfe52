// Package gitrepo adapts a local git repository to the revision queries
// the deploy engine consumes in incremental mode.
package gitrepo

import (
	"fmt"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/sagebind/robo-ftp/internal/deploy"
)

type Repo struct {
	repo *git.Repository
}

func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	return &Repo{repo: repo}, nil
}

func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return ref.Hash().String(), nil
}

// DiffPaths lists the paths added, copied, modified, renamed or
// type-changed between two revisions. Deleted paths are excluded;
// deletions are never propagated to the remote.
func (r *Repo) DiffPaths(from, to string) ([]string, error) {
	fromTree, err := r.tree(from)
	if err != nil {
		return nil, err
	}

	toTree, err := r.tree(to)
	if err != nil {
		return nil, err
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", from, to, err)
	}

	var paths []string
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to classify change: %w", err)
		}
		if action == merkletrie.Delete {
			continue
		}

		paths = append(paths, change.To.Name)
	}

	sort.Strings(paths)
	return paths, nil
}

// TrackedPaths lists every file in the HEAD tree.
func (r *Repo) TrackedPaths() ([]string, error) {
	head, err := r.Head()
	if err != nil {
		return nil, err
	}

	tree, err := r.tree(head)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (r *Repo) tree(rev string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", deploy.ErrUnknownRevision, rev)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", rev, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", rev, err)
	}

	return tree, nil
}
