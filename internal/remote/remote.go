// Package remote turns a git remote URL into the repository coordinates and
// API endpoint used to talk to the hosting service.
package remote

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	vcsurl "github.com/gitsight/go-vcsurl"
)

const (
	PublicHost          = "github.com"
	PublicAPIURL        = "https://api.github.com/"
	PublicUploadURL     = "https://uploads.github.com/"
	enterpriseAPIFmt    = "https://%s/api/v3/"
	enterpriseUploadFmt = "https://%s/api/uploads/"
)

// Repository identifies a repository on a hosting service.
type Repository struct {
	Host  string
	Owner string
	Name  string
}

// FullName returns the owner/name identifier.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

func (r Repository) String() string {
	return r.Host + "/" + r.FullName()
}

// Endpoint is the API location for a repository's host.
type Endpoint struct {
	BaseURL    string
	UploadURL  string
	Enterprise bool
}

// scp-like syntax: [user@]host:owner/name(.git)
var scpLike = regexp.MustCompile(`^(?:[^@/]+@)?([^:/]+):(.+)$`)

// Parse extracts host, owner and name from a remote URL. Hosts known to
// go-vcsurl are parsed by it; anything else (enterprise installs) goes
// through a plain URL parse.
func Parse(raw string) (Repository, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repository{}, fmt.Errorf("empty remote url")
	}
	if info, err := vcsurl.Parse(raw); err == nil && info.Username != "" && info.Name != "" {
		return Repository{
			Host:  strings.ToLower(string(info.Host)),
			Owner: info.Username,
			Name:  strings.TrimSuffix(info.Name, ".git"),
		}, nil
	}
	return parseGeneric(raw)
}

func parseGeneric(raw string) (Repository, error) {
	var host, path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Repository{}, fmt.Errorf("parse remote url %q: %w", raw, err)
		}
		host, path = u.Hostname(), u.Path
	} else if m := scpLike.FindStringSubmatch(raw); m != nil {
		host, path = m[1], m[2]
	} else {
		return Repository{}, fmt.Errorf("unrecognized remote url %q", raw)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	segments := strings.Split(path, "/")
	if host == "" || len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return Repository{}, fmt.Errorf("remote url %q does not name an owner/repository", raw)
	}
	return Repository{Host: strings.ToLower(host), Owner: segments[0], Name: segments[1]}, nil
}

// EndpointFor selects the public API for github.com and the enterprise API
// rooted at the repository host otherwise.
func EndpointFor(repo Repository) Endpoint {
	if repo.Host == PublicHost {
		return Endpoint{BaseURL: PublicAPIURL, UploadURL: PublicUploadURL}
	}
	return Endpoint{
		BaseURL:    fmt.Sprintf(enterpriseAPIFmt, repo.Host),
		UploadURL:  fmt.Sprintf(enterpriseUploadFmt, repo.Host),
		Enterprise: true,
	}
}
