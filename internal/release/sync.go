package release

import (
	"context"
	"fmt"
	"time"

	"github.com/roivaz/git-pr-release/internal/hosting"
	"github.com/roivaz/git-pr-release/internal/logging"
	"github.com/roivaz/git-pr-release/internal/remote"
)

const releaseTitleLayout = "2006-01-02 15:04:05 -0700"

// PullRequestService is the hosting capability used by the release flow.
type PullRequestService interface {
	GetPullRequest(ctx context.Context, repo remote.Repository, number int) (hosting.PullRequest, error)
	ListOpenPullRequests(ctx context.Context, repo remote.Repository) ([]hosting.PullRequest, error)
	CreatePullRequest(ctx context.Context, repo remote.Repository, base, head, title, body string) (*hosting.PullRequest, error)
	UpdatePullRequestBody(ctx context.Context, repo remote.Repository, number int, body string) (*hosting.PullRequest, error)
}

// Action is what the synchronizer did to the release pull request.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDryRun  Action = "dry-run"
)

// Synchronizer keeps the single staging -> production pull request body in
// line with the rendered description. It is the only component that mutates
// the hosting service and makes at most one mutating call per Sync.
type Synchronizer struct {
	prs PullRequestService
	log logging.Logger
	now func() time.Time
}

func NewSynchronizer(prs PullRequestService, log logging.Logger, now func() time.Time) *Synchronizer {
	if now == nil {
		now = time.Now
	}
	return &Synchronizer{prs: prs, log: log.WithName("sync"), now: now}
}

// SyncRequest describes the desired state of the release pull request.
type SyncRequest struct {
	Repository       remote.Repository
	ProductionBranch string
	StagingBranch    string
	Description      string
	DryRun           bool
}

// Sync updates the existing release pull request or creates one. In dry-run
// mode it only searches and returns whatever it found, possibly nil.
func (s *Synchronizer) Sync(ctx context.Context, req SyncRequest) (*hosting.PullRequest, Action, error) {
	existing, err := s.find(ctx, req)
	if err != nil {
		return nil, "", err
	}

	if req.DryRun {
		s.log.Info("dry run, leaving release pull request untouched", "found", existing != nil)
		return existing, ActionDryRun, nil
	}

	if existing != nil {
		s.log.Info("updating release pull request", "number", existing.Number, "unchanged", existing.Body == req.Description)
		pr, err := s.prs.UpdatePullRequestBody(ctx, req.Repository, existing.Number, req.Description)
		if err != nil {
			return nil, "", err
		}
		return pr, ActionUpdated, nil
	}

	title := ReleaseTitle(s.now())
	s.log.Info("creating release pull request", "head", req.StagingBranch, "base", req.ProductionBranch, "title", title)
	pr, err := s.prs.CreatePullRequest(ctx, req.Repository, req.ProductionBranch, req.StagingBranch, title, req.Description)
	if err != nil {
		return nil, "", err
	}
	return pr, ActionCreated, nil
}

// find returns the open pull request from staging into production. When
// several match, the lowest number wins.
func (s *Synchronizer) find(ctx context.Context, req SyncRequest) (*hosting.PullRequest, error) {
	open, err := s.prs.ListOpenPullRequests(ctx, req.Repository)
	if err != nil {
		return nil, fmt.Errorf("search release pull request: %w", err)
	}
	var found *hosting.PullRequest
	matches := 0
	for i := range open {
		pr := open[i]
		if pr.HeadRef != req.StagingBranch || pr.BaseRef != req.ProductionBranch {
			continue
		}
		matches++
		if found == nil || pr.Number < found.Number {
			found = &pr
		}
	}
	if matches > 1 {
		s.log.Warn("several open release pull requests found, using the oldest", "count", matches, "number", found.Number)
	}
	return found, nil
}

// ReleaseTitle is the title given to a newly created release pull request.
func ReleaseTitle(t time.Time) string {
	return "Release " + t.Format(releaseTitleLayout)
}
