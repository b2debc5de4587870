// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps go-git repository operations
type Repository struct {
	Path string
	repo *git.Repository
}

// OpenRepository opens the repository containing path, searching parent
// directories for the .git directory
func OpenRepository(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	return &Repository{
		Path: path,
		repo: repo,
	}, nil
}

// IsNotRepository reports whether err means path is outside any repository
func IsNotRepository(err error) bool {
	return errors.Is(err, git.ErrRepositoryNotExists)
}

// Branch returns the checked out branch name, or "HEAD" when detached.
// An unborn branch is reported by the name HEAD points at.
func (r *Repository) Branch() (string, error) {
	ref, err := r.repo.Head()
	if err == nil {
		if ref.Name().IsBranch() {
			return ref.Name().Short(), nil
		}
		return "HEAD", nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return head.Target().Short(), nil
}

// Status returns the status of the worktree
func (r *Repository) Status() (git.Status, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return status, nil
}
