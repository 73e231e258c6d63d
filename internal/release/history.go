package release

import (
	"context"
	"fmt"

	"github.com/roivaz/git-pr-release/internal/gitrepo"
)

// MergeRecord holds the parents of a merge commit: the mainline parent and
// the tip of the branch that was merged in.
type MergeRecord struct {
	Mainline string
	Merged   string
}

// RemoteHead is a ref on the remote and the commit it points at.
type RemoteHead struct {
	Commit string
	Ref    string
}

// History is the read-only view of version control the resolver needs.
type History interface {
	MergeRecords(ctx context.Context, rangeExpr string) ([]MergeRecord, error)
	RemoteHeads(ctx context.Context, pattern string) ([]RemoteHead, error)
	IsAncestor(ctx context.Context, commit, ref string) (bool, error)
}

// RemoteUpdater refreshes local knowledge of the remote.
type RemoteUpdater interface {
	UpdateRemote(ctx context.Context) error
}

// GitHistory serves History and RemoteUpdater from a local clone.
type GitHistory struct {
	repo *gitrepo.Repo
}

func NewGitHistory(repo *gitrepo.Repo) GitHistory {
	return GitHistory{repo: repo}
}

func (h GitHistory) UpdateRemote(ctx context.Context) error {
	return h.repo.UpdateRemote(ctx)
}

func (h GitHistory) MergeRecords(ctx context.Context, rangeExpr string) ([]MergeRecord, error) {
	merges, err := h.repo.MergeParents(ctx, rangeExpr)
	if err != nil {
		return nil, err
	}
	records := make([]MergeRecord, 0, len(merges))
	for _, parents := range merges {
		if len(parents) < 2 {
			return nil, fmt.Errorf("merge commit in %s lists %d parent(s)", rangeExpr, len(parents))
		}
		records = append(records, MergeRecord{Mainline: parents[0], Merged: parents[1]})
	}
	return records, nil
}

func (h GitHistory) RemoteHeads(ctx context.Context, pattern string) ([]RemoteHead, error) {
	pairs, err := h.repo.RemoteHeads(ctx, pattern)
	if err != nil {
		return nil, err
	}
	heads := make([]RemoteHead, 0, len(pairs))
	for _, p := range pairs {
		heads = append(heads, RemoteHead{Commit: p[0], Ref: p[1]})
	}
	return heads, nil
}

func (h GitHistory) IsAncestor(ctx context.Context, commit, ref string) (bool, error) {
	return h.repo.IsAncestor(ctx, commit, ref)
}
