// Package auth obtains the access token used against the hosting API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roivaz/git-pr-release/internal/gitrepo"
	"github.com/roivaz/git-pr-release/internal/logging"
)

// ErrNoToken is returned by a provider that has no token to offer. Chain
// moves on to the next provider when it sees it.
var ErrNoToken = errors.New("no access token available")

const authorizationNote = "git-pr-release"

// TokenProvider yields an access token for the hosting API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ConfigStore is the git config subset used to read and persist tokens.
type ConfigStore interface {
	ConfigGet(ctx context.Context, key string) (string, error)
	ConfigSet(ctx context.Context, key, value string, scope gitrepo.ConfigScope) error
}

// StoredTokenProvider reads a previously persisted token from git config.
type StoredTokenProvider struct {
	Store ConfigStore
	Key   string
}

func (p StoredTokenProvider) Token(ctx context.Context) (string, error) {
	token, err := p.Store.ConfigGet(ctx, p.Key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p.Key, err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}

// Authorizer mints a new token on the hosting service.
type Authorizer interface {
	CreateAuthorization(ctx context.Context, scopes []string, note string) (string, error)
}

// AuthorizerFactory builds an Authorizer from user credentials.
type AuthorizerFactory func(username, password string) (Authorizer, error)

// InteractivePromptTokenProvider asks the user for credentials, creates a
// token with them and stores it globally so later runs find it.
type InteractivePromptTokenProvider struct {
	Prompter      Prompter
	NewAuthorizer AuthorizerFactory
	Scopes        []string
	Store         ConfigStore
	Key           string
	Log           logging.Logger
}

func (p InteractivePromptTokenProvider) Token(ctx context.Context) (string, error) {
	p.Log.Info("could not obtain access token from git config, creating one", "key", p.Key)

	username, err := p.Prompter.Prompt("username")
	if err != nil {
		return "", fmt.Errorf("prompt username: %w", err)
	}
	password, err := p.Prompter.PromptSecret("password")
	if err != nil {
		return "", fmt.Errorf("prompt password: %w", err)
	}
	if username == "" || password == "" {
		return "", ErrNoToken
	}

	authorizer, err := p.NewAuthorizer(username, password)
	if err != nil {
		return "", err
	}
	token, err := authorizer.CreateAuthorization(ctx, p.Scopes, authorizationNote)
	if err != nil {
		return "", err
	}

	if err := p.Store.ConfigSet(ctx, p.Key, token, gitrepo.ScopeGlobal); err != nil {
		return "", fmt.Errorf("persist %s: %w", p.Key, err)
	}
	p.Log.Debug("stored access token in global git config", "key", p.Key)
	return token, nil
}

type chain []TokenProvider

// Chain returns a provider that tries each provider in order. A provider
// failing with ErrNoToken hands over to the next one; any other error stops
// the chain.
func Chain(providers ...TokenProvider) TokenProvider {
	return chain(providers)
}

func (c chain) Token(ctx context.Context) (string, error) {
	for _, p := range c {
		token, err := p.Token(ctx)
		if errors.Is(err, ErrNoToken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return token, nil
	}
	return "", ErrNoToken
}
