package hosting

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/roivaz/git-pr-release/internal/remote"
)

const (
	requestTimeout = 60 * time.Second
	listPageSize   = 100
)

// AuthorizationScopes are requested when a token is created interactively.
var AuthorizationScopes = []string{string(github.ScopePublicRepo), string(github.ScopeRepo)}

// NewGitHubClient returns a go-github client for endpoint. A non-empty token
// is sent as a bearer token. Enterprise endpoints skip TLS verification.
func NewGitHubClient(token string, endpoint remote.Endpoint) (*github.Client, error) {
	base := &http.Client{Transport: transportFor(endpoint), Timeout: requestTimeout}
	httpClient := base
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = requestTimeout
	}
	return withEndpoint(github.NewClient(httpClient), endpoint)
}

// NewBasicAuthGitHubClient authenticates with a username and password. It is
// only used to mint a token on first run.
func NewBasicAuthGitHubClient(username, password string, endpoint remote.Endpoint) (*github.Client, error) {
	tp := &github.BasicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: transportFor(endpoint),
	}
	httpClient := tp.Client()
	httpClient.Timeout = requestTimeout
	return withEndpoint(github.NewClient(httpClient), endpoint)
}

func transportFor(endpoint remote.Endpoint) http.RoundTripper {
	if !endpoint.Enterprise {
		return http.DefaultTransport
	}
	t := &http.Transport{}
	if dt, ok := http.DefaultTransport.(*http.Transport); ok {
		t = dt.Clone()
	}
	// Enterprise installs commonly run with self-signed certificates.
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return t
}

func withEndpoint(client *github.Client, endpoint remote.Endpoint) (*github.Client, error) {
	if !endpoint.Enterprise {
		return client, nil
	}
	c, err := client.WithEnterpriseURLs(endpoint.BaseURL, endpoint.UploadURL)
	if err != nil {
		return nil, fmt.Errorf("configure enterprise endpoint %s: %w", endpoint.BaseURL, err)
	}
	return c, nil
}

// PullRequest is the subset of a GitHub pull request the release flow uses.
type PullRequest struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Assignee string `json:"assignee,omitempty"`
	HeadRef  string `json:"head"`
	BaseRef  string `json:"base"`
	Body     string `json:"-"`
	HTMLURL  string `json:"url"`
}

func buildPullRequest(pr *github.PullRequest) PullRequest {
	return PullRequest{
		Number:   pr.GetNumber(),
		Title:    pr.GetTitle(),
		Assignee: pr.GetAssignee().GetLogin(),
		HeadRef:  pr.GetHead().GetRef(),
		BaseRef:  pr.GetBase().GetRef(),
		Body:     pr.GetBody(),
		HTMLURL:  pr.GetHTMLURL(),
	}
}

// Client exposes the pull request operations of the hosting service.
type Client struct {
	gh *github.Client
}

func NewClient(gh *github.Client) *Client {
	return &Client{gh: gh}
}

func (c *Client) GetPullRequest(ctx context.Context, repo remote.Repository, number int) (PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("get pull request %s#%d: %w", repo.FullName(), number, err)
	}
	return buildPullRequest(pr), nil
}

// ListOpenPullRequests returns every open pull request, following pagination.
func (c *Client) ListOpenPullRequests(ctx context.Context, repo remote.Repository) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}
	var results []PullRequest
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list open pull requests of %s (page %d): %w", repo.FullName(), opts.Page, err)
		}
		for _, pr := range prs {
			results = append(results, buildPullRequest(pr))
		}
		if resp == nil || resp.NextPage == 0 {
			return results, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) CreatePullRequest(ctx context.Context, repo remote.Repository, base, head, title, body string) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, repo.Owner, repo.Name, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
		Body:  github.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request %s -> %s on %s: %w", head, base, repo.FullName(), err)
	}
	if pr == nil {
		return nil, nil
	}
	out := buildPullRequest(pr)
	return &out, nil
}

// UpdatePullRequestBody replaces the body and leaves every other field alone.
func (c *Client) UpdatePullRequestBody(ctx context.Context, repo remote.Repository, number int, body string) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Edit(ctx, repo.Owner, repo.Name, number, &github.PullRequest{
		Body: github.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("update pull request %s#%d: %w", repo.FullName(), number, err)
	}
	if pr == nil {
		return nil, nil
	}
	out := buildPullRequest(pr)
	return &out, nil
}

// CreateAuthorization mints a personal token through the legacy
// authorizations endpoint, which go-github no longer wraps. The client must
// be authenticated with basic auth.
func (c *Client) CreateAuthorization(ctx context.Context, scopes []string, note string) (string, error) {
	authReq := &github.AuthorizationRequest{Note: github.String(note)}
	for _, s := range scopes {
		authReq.Scopes = append(authReq.Scopes, github.Scope(s))
	}
	req, err := c.gh.NewRequest(http.MethodPost, "authorizations", authReq)
	if err != nil {
		return "", fmt.Errorf("build authorization request: %w", err)
	}
	var raw bytes.Buffer
	if _, err := c.gh.Do(ctx, req, &raw); err != nil {
		return "", fmt.Errorf("create authorization: %w", err)
	}
	token := gjson.GetBytes(raw.Bytes(), "token").String()
	if token == "" {
		return "", fmt.Errorf("create authorization: response carries no token")
	}
	return token, nil
}
