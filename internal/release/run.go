package release

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roivaz/git-pr-release/internal/hosting"
	"github.com/roivaz/git-pr-release/internal/logging"
)

var (
	// ErrNothingToRelease means staging holds no pull request that
	// production lacks.
	ErrNothingToRelease = errors.New("no pull requests to be released")
	// ErrNoPullRequest means the create or update call returned no pull
	// request.
	ErrNoPullRequest = errors.New("no release pull request found or created")
)

// Result summarizes one run.
type Result struct {
	Repository  string               `json:"repository"`
	Production  string               `json:"production"`
	Staging     string               `json:"staging"`
	Pending     []int                `json:"pending"`
	Description string               `json:"description"`
	Action      Action               `json:"action,omitempty"`
	PullRequest *hosting.PullRequest `json:"pull_request,omitempty"`
}

type Option func(*Runner)

// WithClock overrides the clock used for release pull request titles.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner performs one resolve-and-synchronize pass.
type Runner struct {
	cfg      Config
	updater  RemoteUpdater
	prs      PullRequestService
	log      logging.Logger
	now      func() time.Time
	resolver *Resolver
	sync     *Synchronizer
}

func NewRunner(cfg Config, updater RemoteUpdater, history History, prs PullRequestService, log logging.Logger, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, updater: updater, prs: prs, log: log.WithName("release"), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.resolver = NewResolver(history, r.log)
	r.sync = NewSynchronizer(prs, r.log, r.now)
	return r
}

// Run refreshes the remote, resolves the pending pull requests and syncs the
// release pull request. It returns ErrNothingToRelease without touching the
// hosting service when nothing is pending.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	result := Result{
		Repository: r.cfg.Repository.FullName(),
		Production: r.cfg.ProductionBranch,
		Staging:    r.cfg.StagingBranch,
	}

	r.log.Debug("updating remote", "remote", r.cfg.Remote)
	if err := r.updater.UpdateRemote(ctx); err != nil {
		return result, fmt.Errorf("update remote %s: %w", r.cfg.Remote, err)
	}

	pending, err := r.resolver.Resolve(ctx, r.cfg.ProductionRef(), r.cfg.StagingRef())
	if err != nil {
		return result, err
	}
	result.Pending = pending
	if len(pending) == 0 {
		return result, ErrNothingToRelease
	}
	r.log.Info("found pull requests to release", "count", len(pending), "numbers", pending)

	prs, err := r.hydrate(ctx, pending)
	if err != nil {
		return result, err
	}
	result.Description = RenderDescription(prs)

	pr, action, err := r.sync.Sync(ctx, SyncRequest{
		Repository:       r.cfg.Repository,
		ProductionBranch: r.cfg.ProductionBranch,
		StagingBranch:    r.cfg.StagingBranch,
		Description:      result.Description,
		DryRun:           r.cfg.DryRun,
	})
	if err != nil {
		return result, err
	}
	result.Action = action
	result.PullRequest = pr
	if pr == nil && action != ActionDryRun {
		return result, ErrNoPullRequest
	}
	return result, nil
}

// hydrate fetches each pending pull request in order, one at a time.
func (r *Runner) hydrate(ctx context.Context, numbers []int) ([]hosting.PullRequest, error) {
	prs := make([]hosting.PullRequest, 0, len(numbers))
	for _, n := range numbers {
		pr, err := r.prs.GetPullRequest(ctx, r.cfg.Repository, n)
		if err != nil {
			return nil, err
		}
		r.log.Debug("fetched pull request", "number", pr.Number, "title", pr.Title)
		prs = append(prs, pr)
	}
	return prs, nil
}
