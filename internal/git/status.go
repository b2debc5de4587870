// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package git

import (
	"encoding/json"
	"sort"

	"github.com/go-git/go-git/v5"
)

// Snapshot is the working tree state recorded when a session starts
type Snapshot struct {
	Branch    string   `json:"branch"`
	Modified  []string `json:"modified"`
	Untracked []string `json:"untracked"`
	Staged    []string `json:"staged"`
}

// Capture records the branch and changed files of the repository at
// path. It returns nil without error when path is not inside a repository.
func Capture(path string) (*Snapshot, error) {
	repo, err := OpenRepository(path)
	if err != nil {
		if IsNotRepository(err) {
			return nil, nil
		}
		return nil, err
	}

	branch, err := repo.Branch()
	if err != nil {
		return nil, err
	}
	status, err := repo.Status()
	if err != nil {
		return nil, err
	}

	snap := classify(status)
	snap.Branch = branch
	return snap, nil
}

// classify sorts files the way porcelain status reports them: untracked
// files on their own, anything with a staged change as staged, and
// anything modified in the worktree as modified.
func classify(status git.Status) *Snapshot {
	snap := &Snapshot{
		Modified:  []string{},
		Untracked: []string{},
		Staged:    []string{},
	}
	for file, fs := range status {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			snap.Untracked = append(snap.Untracked, file)
			continue
		}
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			snap.Staged = append(snap.Staged, file)
		}
		if fs.Worktree == git.Modified {
			snap.Modified = append(snap.Modified, file)
		}
	}
	sort.Strings(snap.Modified)
	sort.Strings(snap.Untracked)
	sort.Strings(snap.Staged)
	return snap
}

// JSON encodes the snapshot for storage; a nil snapshot encodes as ""
func (s *Snapshot) JSON() (string, error) {
	if s == nil {
		return "", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
