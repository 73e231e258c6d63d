package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roivaz/git-pr-release/internal/auth"
	"github.com/roivaz/git-pr-release/internal/config"
	"github.com/roivaz/git-pr-release/internal/gitrepo"
	"github.com/roivaz/git-pr-release/internal/hosting"
	"github.com/roivaz/git-pr-release/internal/logging"
	"github.com/roivaz/git-pr-release/internal/release"
	"github.com/roivaz/git-pr-release/internal/remote"
)

var rootCmd = &cobra.Command{
	Use:   "git-pr-release",
	Short: "Create or update the release pull request from staging into production",
	Long: `git-pr-release lists the pull requests merged into the staging branch but
not yet into the production branch, and keeps a single staging -> production
pull request whose body is a checklist of them.

Branches are read from git config (pr-release.branch.production, default
master; pr-release.branch.staging, default staging). The access token is read
from pr-release.token and created interactively on first run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Errors past flag parsing are logged by run itself.
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			select {
			case <-sigs:
				cancel()
			case <-ctx.Done():
			}
		}()

		threshold := logging.ThresholdFor(config.Debug())
		log := logging.New(logging.NewConsoleLogger(threshold)).WithThreshold(threshold)
		return run(ctx, log)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("dry-run", false, "resolve and render, but do not create or update the pull request")
	flags.String("output", "text", "run report written to stdout: text, json or yaml")
	flags.String("remote", "origin", "git remote holding the production and staging branches")
	flags.String("repo-path", ".", "path of the local clone")
	flags.Bool("debug", false, "enable debug logging (also GIT_PR_RELEASE_DEBUG)")
}

func run(ctx context.Context, log logging.Logger) error {
	if err := validateReportFormat(config.Output()); err != nil {
		log.Error(err, "invalid flags")
		return err
	}

	repo := gitrepo.New(gitrepo.RepoConfig{Path: config.RepoPath(), Remote: config.Remote()})

	rawURL, err := repo.RemoteURL(ctx)
	if err != nil {
		log.Error(err, "read remote url", "remote", repo.Remote())
		return err
	}
	repository, err := remote.Parse(rawURL)
	if err != nil {
		log.Error(err, "parse remote url", "url", rawURL)
		return err
	}
	endpoint := remote.EndpointFor(repository)
	log.Debug("resolved repository", "repository", repository.String(), "api", endpoint.BaseURL, "enterprise", endpoint.Enterprise)

	cfg, err := release.LoadConfig(ctx, repo, repository)
	if err != nil {
		log.Error(err, "load configuration")
		return err
	}

	token, err := tokenProvider(repo, endpoint, log).Token(ctx)
	if err != nil {
		log.Error(err, "obtain access token")
		return err
	}
	gh, err := hosting.NewGitHubClient(token, endpoint)
	if err != nil {
		log.Error(err, "create hosting client")
		return err
	}

	history := release.NewGitHistory(repo)
	runner := release.NewRunner(cfg, history, history, hosting.NewClient(gh), log)
	result, err := runner.Run(ctx)
	switch {
	case errors.Is(err, release.ErrNothingToRelease):
		log.Notice("no pull requests to be released", "production", cfg.ProductionRef(), "staging", cfg.StagingRef())
		return err
	case errors.Is(err, release.ErrNoPullRequest):
		log.Error(err, "release pull request is missing after sync")
		return err
	case err != nil:
		log.Error(err, "release run failed")
		return err
	}

	if result.PullRequest != nil {
		log.Info("release pull request "+string(result.Action), "number", result.PullRequest.Number, "url", result.PullRequest.HTMLURL)
	}
	return writeReport(os.Stdout, config.Output(), result)
}

func tokenProvider(repo *gitrepo.Repo, endpoint remote.Endpoint, log logging.Logger) auth.TokenProvider {
	return auth.Chain(
		auth.StoredTokenProvider{Store: repo, Key: config.GitKeyToken},
		auth.InteractivePromptTokenProvider{
			Prompter:      auth.NewTerminalPrompter(),
			NewAuthorizer: basicAuthAuthorizer(endpoint),
			Scopes:        hosting.AuthorizationScopes,
			Store:         repo,
			Key:           config.GitKeyToken,
			Log:           log.WithName("auth"),
		},
	)
}

func basicAuthAuthorizer(endpoint remote.Endpoint) auth.AuthorizerFactory {
	return func(username, password string) (auth.Authorizer, error) {
		gh, err := hosting.NewBasicAuthGitHubClient(username, password, endpoint)
		if err != nil {
			return nil, err
		}
		return hosting.NewClient(gh), nil
	}
}

func main() {
	config.Init(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
