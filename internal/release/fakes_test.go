package release

import (
	"context"
	"fmt"

	"github.com/roivaz/git-pr-release/internal/hosting"
	"github.com/roivaz/git-pr-release/internal/remote"
)

// fakeHistory is an in-memory History and RemoteUpdater.
type fakeHistory struct {
	merges   []MergeRecord
	heads    []RemoteHead
	released map[string]bool

	updateErr   error
	mergesErr   error
	headsErr    error
	ancestorErr error

	updates       int
	ranges        []string
	ancestorCalls []string
}

func (f *fakeHistory) UpdateRemote(ctx context.Context) error {
	f.updates++
	return f.updateErr
}

func (f *fakeHistory) MergeRecords(ctx context.Context, rangeExpr string) ([]MergeRecord, error) {
	f.ranges = append(f.ranges, rangeExpr)
	return f.merges, f.mergesErr
}

func (f *fakeHistory) RemoteHeads(ctx context.Context, pattern string) ([]RemoteHead, error) {
	if pattern != PullHeadPattern {
		return nil, fmt.Errorf("unexpected pattern %q", pattern)
	}
	return f.heads, f.headsErr
}

func (f *fakeHistory) IsAncestor(ctx context.Context, commit, ref string) (bool, error) {
	f.ancestorCalls = append(f.ancestorCalls, commit+"@"+ref)
	if f.ancestorErr != nil {
		return false, f.ancestorErr
	}
	return f.released[commit], nil
}

type createCall struct {
	Base, Head, Title, Body string
}

type updateCall struct {
	Number int
	Body   string
}

// fakePRService keeps pull requests in memory. Created pull requests become
// open so a second run finds them.
type fakePRService struct {
	prs  map[int]hosting.PullRequest
	open []hosting.PullRequest

	nextNumber  int
	returnNil   bool
	getErr      error
	listErr     error
	mutationErr error
	fetched     []int
	listCalls   int
	createCalls []createCall
	updateCalls []updateCall
}

func newFakePRService(prs ...hosting.PullRequest) *fakePRService {
	f := &fakePRService{prs: map[int]hosting.PullRequest{}, nextNumber: 100}
	for _, pr := range prs {
		f.prs[pr.Number] = pr
	}
	return f
}

func (f *fakePRService) mutations() int {
	return len(f.createCalls) + len(f.updateCalls)
}

func (f *fakePRService) GetPullRequest(ctx context.Context, repo remote.Repository, number int) (hosting.PullRequest, error) {
	f.fetched = append(f.fetched, number)
	if f.getErr != nil {
		return hosting.PullRequest{}, f.getErr
	}
	pr, ok := f.prs[number]
	if !ok {
		return hosting.PullRequest{}, fmt.Errorf("pull request #%d not found", number)
	}
	return pr, nil
}

func (f *fakePRService) ListOpenPullRequests(ctx context.Context, repo remote.Repository) ([]hosting.PullRequest, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]hosting.PullRequest(nil), f.open...)
	return out, nil
}

func (f *fakePRService) CreatePullRequest(ctx context.Context, repo remote.Repository, base, head, title, body string) (*hosting.PullRequest, error) {
	f.createCalls = append(f.createCalls, createCall{Base: base, Head: head, Title: title, Body: body})
	if f.mutationErr != nil {
		return nil, f.mutationErr
	}
	if f.returnNil {
		return nil, nil
	}
	pr := hosting.PullRequest{
		Number:  f.nextNumber,
		Title:   title,
		HeadRef: head,
		BaseRef: base,
		Body:    body,
		HTMLURL: fmt.Sprintf("https://github.com/%s/pull/%d", repo.FullName(), f.nextNumber),
	}
	f.nextNumber++
	f.open = append(f.open, pr)
	return &pr, nil
}

func (f *fakePRService) UpdatePullRequestBody(ctx context.Context, repo remote.Repository, number int, body string) (*hosting.PullRequest, error) {
	f.updateCalls = append(f.updateCalls, updateCall{Number: number, Body: body})
	if f.mutationErr != nil {
		return nil, f.mutationErr
	}
	if f.returnNil {
		return nil, nil
	}
	for i := range f.open {
		if f.open[i].Number == number {
			f.open[i].Body = body
			pr := f.open[i]
			return &pr, nil
		}
	}
	return nil, fmt.Errorf("pull request #%d is not open", number)
}
