package release

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roivaz/git-pr-release/internal/hosting"
	"github.com/roivaz/git-pr-release/internal/logging"
	"github.com/roivaz/git-pr-release/internal/remote"
)

var (
	testRepo  = remote.Repository{Host: "github.com", Owner: "acme", Name: "shop"}
	testClock = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }
)

func syncRequest(description string) SyncRequest {
	return SyncRequest{
		Repository:       testRepo,
		ProductionBranch: "master",
		StagingBranch:    "staging",
		Description:      description,
	}
}

func TestReleaseTitle(t *testing.T) {
	assert.Equal(t, "Release 2026-10-19 09:30:00 +0000", ReleaseTitle(testClock()))
}

func TestSyncCreatesWhenNoneOpen(t *testing.T) {
	prs := newFakePRService()
	prs.open = []hosting.PullRequest{{Number: 3, HeadRef: "feature", BaseRef: "staging"}}

	pr, action, err := NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), syncRequest("- [ ] #7 Add feature"))
	require.NoError(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, ActionCreated, action)
	assert.Empty(t, prs.updateCalls)
	require.Len(t, prs.createCalls, 1)
	assert.Equal(t, createCall{
		Base:  "master",
		Head:  "staging",
		Title: "Release 2026-10-19 09:30:00 +0000",
		Body:  "- [ ] #7 Add feature",
	}, prs.createCalls[0])
}

func TestSyncUpdatesExisting(t *testing.T) {
	prs := newFakePRService()
	prs.open = []hosting.PullRequest{
		{Number: 3, HeadRef: "feature", BaseRef: "staging"},
		{Number: 99, Title: "Release old", HeadRef: "staging", BaseRef: "master", Body: "stale"},
	}

	pr, action, err := NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), syncRequest("- [ ] #7 Add feature"))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, action)
	assert.Empty(t, prs.createCalls)
	assert.Equal(t, []updateCall{{Number: 99, Body: "- [ ] #7 Add feature"}}, prs.updateCalls)
	require.NotNil(t, pr)
	assert.Equal(t, 99, pr.Number)
	assert.Equal(t, "Release old", pr.Title)
}

func TestSyncLogsWhetherBodyChanged(t *testing.T) {
	for _, tc := range []struct {
		body      string
		unchanged bool
	}{
		{body: "- [ ] #7 Add feature", unchanged: true},
		{body: "stale", unchanged: false},
	} {
		prs := newFakePRService()
		prs.open = []hosting.PullRequest{{Number: 99, HeadRef: "staging", BaseRef: "master", Body: tc.body}}
		log, logs := observedLogger(t)

		_, action, err := NewSynchronizer(prs, log, testClock).Sync(context.Background(), syncRequest("- [ ] #7 Add feature"))
		require.NoError(t, err)
		assert.Equal(t, ActionUpdated, action)
		assert.Len(t, prs.updateCalls, 1)

		entries := logs.FilterMessage("updating release pull request").All()
		require.Len(t, entries, 1)
		assert.Equal(t, tc.unchanged, entries[0].ContextMap()["unchanged"])
		assert.Zero(t, logs.FilterMessage("release pull request body already up to date").Len())
	}
}

func TestSyncPrefersLowestNumberOnDuplicates(t *testing.T) {
	prs := newFakePRService()
	prs.open = []hosting.PullRequest{
		{Number: 120, HeadRef: "staging", BaseRef: "master"},
		{Number: 99, HeadRef: "staging", BaseRef: "master"},
		{Number: 130, HeadRef: "staging", BaseRef: "master"},
	}

	_, _, err := NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), syncRequest("body"))
	require.NoError(t, err)
	require.Len(t, prs.updateCalls, 1)
	assert.Equal(t, 99, prs.updateCalls[0].Number)
}

func TestSyncIgnoresReversedBranches(t *testing.T) {
	prs := newFakePRService()
	prs.open = []hosting.PullRequest{{Number: 5, HeadRef: "master", BaseRef: "staging"}}

	_, action, err := NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), syncRequest("body"))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, action)
	assert.Empty(t, prs.updateCalls)
}

func TestSyncDryRunDoesNotMutate(t *testing.T) {
	prs := newFakePRService()
	prs.open = []hosting.PullRequest{{Number: 99, HeadRef: "staging", BaseRef: "master"}}

	req := syncRequest("body")
	req.DryRun = true
	pr, action, err := NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionDryRun, action)
	require.NotNil(t, pr)
	assert.Equal(t, 99, pr.Number)
	assert.Zero(t, prs.mutations())
}

func TestSyncPropagatesErrors(t *testing.T) {
	boom := errors.New("502 bad gateway")

	prs := newFakePRService()
	prs.listErr = boom
	_, _, err := NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), syncRequest("body"))
	require.ErrorIs(t, err, boom)
	assert.Zero(t, prs.mutations())

	prs = newFakePRService()
	prs.mutationErr = boom
	_, _, err = NewSynchronizer(prs, logging.Discard(), testClock).Sync(context.Background(), syncRequest("body"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, prs.mutations())
}
