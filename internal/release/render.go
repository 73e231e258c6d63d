package release

import (
	"fmt"
	"strings"

	"github.com/roivaz/git-pr-release/internal/hosting"
)

// RenderDescription builds the release pull request body: one unchecked
// checklist item per pull request, newline separated, no trailing newline.
func RenderDescription(prs []hosting.PullRequest) string {
	lines := make([]string, 0, len(prs))
	for _, pr := range prs {
		lines = append(lines, checklistItem(pr))
	}
	return strings.Join(lines, "\n")
}

func checklistItem(pr hosting.PullRequest) string {
	item := fmt.Sprintf("- [ ] #%d %s", pr.Number, pr.Title)
	if pr.Assignee != "" {
		item += " @" + pr.Assignee
	}
	return item
}
