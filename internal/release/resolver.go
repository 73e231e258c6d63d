package release

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/roivaz/git-pr-release/internal/logging"
)

// PullHeadPattern matches the head refs the hosting service keeps for every
// pull request.
const PullHeadPattern = "refs/pull/*/head"

var pullHeadRef = regexp.MustCompile(`^refs/pull/(\d+)/head$`)

// candidate is a pull request whose head commit was merged into staging.
type candidate struct {
	Number int
	Commit string
}

// Resolver computes the pull requests merged into staging but not yet into
// production.
type Resolver struct {
	history History
	log     logging.Logger
}

func NewResolver(history History, log logging.Logger) *Resolver {
	return &Resolver{history: history, log: log.WithName("resolver")}
}

// Resolve returns pending pull request numbers in the order their remote
// heads are listed. An empty result is not an error.
func (r *Resolver) Resolve(ctx context.Context, productionRef, stagingRef string) ([]int, error) {
	rangeExpr := productionRef + ".." + stagingRef
	records, err := r.history.MergeRecords(ctx, rangeExpr)
	if err != nil {
		return nil, fmt.Errorf("list merges in %s: %w", rangeExpr, err)
	}
	tips := mergedTips(records)
	r.log.Debug("collected merged feature tips", "range", rangeExpr, "merges", len(records))
	if len(tips) == 0 {
		return nil, nil
	}

	heads, err := r.history.RemoteHeads(ctx, PullHeadPattern)
	if err != nil {
		return nil, fmt.Errorf("list pull request heads: %w", err)
	}

	candidates := r.parseCandidates(matchTips(heads, tips))
	pending, err := r.dropReleased(ctx, candidates, productionRef)
	if err != nil {
		return nil, err
	}
	return numbers(pending), nil
}

// mergedTips returns the set of second parents of records.
func mergedTips(records []MergeRecord) map[string]struct{} {
	tips := make(map[string]struct{}, len(records))
	for _, rec := range records {
		tips[rec.Merged] = struct{}{}
	}
	return tips
}

// matchTips keeps the heads whose commit is one of tips, preserving order.
func matchTips(heads []RemoteHead, tips map[string]struct{}) []RemoteHead {
	var matched []RemoteHead
	for _, h := range heads {
		if _, ok := tips[h.Commit]; ok {
			matched = append(matched, h)
		}
	}
	return matched
}

// parsePullNumber extracts N from refs/pull/N/head.
func parsePullNumber(ref string) (int, bool) {
	m := pullHeadRef.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r *Resolver) parseCandidates(heads []RemoteHead) []candidate {
	candidates := make([]candidate, 0, len(heads))
	for _, h := range heads {
		n, ok := parsePullNumber(h.Ref)
		if !ok {
			r.log.Warn("bad pull request head ref format", "ref", h.Ref, "commit", h.Commit)
			continue
		}
		candidates = append(candidates, candidate{Number: n, Commit: h.Commit})
	}
	return candidates
}

// dropReleased removes candidates whose head already reached production.
func (r *Resolver) dropReleased(ctx context.Context, candidates []candidate, productionRef string) ([]candidate, error) {
	kept := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		released, err := r.history.IsAncestor(ctx, c.Commit, productionRef)
		if err != nil {
			return nil, fmt.Errorf("check #%d (%s) against %s: %w", c.Number, c.Commit, productionRef, err)
		}
		if released {
			r.log.Debug("already merged into production", "number", c.Number, "commit", c.Commit, "production", productionRef)
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

func numbers(candidates []candidate) []int {
	out := make([]int, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Number)
	}
	return out
}
