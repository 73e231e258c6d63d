package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ConfigScope selects which git config file a write goes to.
type ConfigScope string

const (
	ScopeLocal  ConfigScope = "local"
	ScopeGlobal ConfigScope = "global"
)

type RepoConfig struct {
	Path   string
	Remote string // default: origin
	// Timeout bounds each git invocation. Zero disables the bound.
	Timeout time.Duration
}

type Repo struct {
	cfg    RepoConfig
	runner Runner
}

func New(cfg RepoConfig) *Repo {
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.Path == "" {
		cfg.Path = "."
	}
	return &Repo{cfg: cfg, runner: Runner{Timeout: cfg.Timeout}}
}

// Remote returns the name of the remote the repo talks to.
func (r *Repo) Remote() string {
	return r.cfg.Remote
}

type Runner struct {
	Timeout time.Duration
}

func (r Runner) Git(ctx context.Context, dir string, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	c := exec.CommandContext(ctx, "git", args...)
	c.Dir = dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		if r.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", formatGitTimeoutError(args, r.Timeout, stderr.String())
		}
		if ctx.Err() != nil {
			return "", formatGitContextError(args, ctx.Err(), stderr.String())
		}
		return "", formatGitError(args, err, stderr.String())
	}
	return stdout.String(), nil
}

func formatGitError(args []string, cause error, stderr string) error {
	cmd := strings.Join(args, " ")
	stderr = strings.TrimSpace(stderr)
	if stderr != "" {
		return fmt.Errorf("git %s: %w: %s", cmd, cause, stderr)
	}
	return fmt.Errorf("git %s: %w", cmd, cause)
}

func formatGitTimeoutError(args []string, timeout time.Duration, stderr string) error {
	return formatGitError(args, fmt.Errorf("command timed out after %s", timeout), stderr)
}

func formatGitContextError(args []string, cause error, stderr string) error {
	if cause == nil {
		cause = errors.New("context canceled")
	}
	return formatGitError(args, cause, stderr)
}

// exitCode extracts the process exit status from a git error, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Run is a helper to execute arbitrary git subcommands in the repo path.
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	return r.runner.Git(ctx, r.cfg.Path, args...)
}

// UpdateRemote refreshes the remote-tracking refs of the configured remote.
func (r *Repo) UpdateRemote(ctx context.Context) error {
	_, err := r.Run(ctx, "remote", "update", r.cfg.Remote)
	return err
}

// RemoteURL returns the fetch URL of the configured remote.
func (r *Repo) RemoteURL(ctx context.Context) (string, error) {
	out, err := r.Run(ctx, "config", fmt.Sprintf("remote.%s.url", r.cfg.Remote))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// MergeParents returns the parent list of every merge commit in rangeExpr,
// newest first. Each entry holds the space separated parents of one merge.
func (r *Repo) MergeParents(ctx context.Context, rangeExpr string) ([][]string, error) {
	out, err := r.Run(ctx, "log", "--merges", "--pretty=format:%P", rangeExpr)
	if err != nil {
		return nil, err
	}
	var merges [][]string
	for _, line := range splitLines(out) {
		merges = append(merges, strings.Fields(line))
	}
	return merges, nil
}

// RemoteHeads lists the refs on the remote matching pattern as
// (commit, ref) pairs in the order git reports them.
func (r *Repo) RemoteHeads(ctx context.Context, pattern string) ([][2]string, error) {
	out, err := r.Run(ctx, "ls-remote", r.cfg.Remote, pattern)
	if err != nil {
		return nil, err
	}
	var heads [][2]string
	for _, line := range splitLines(out) {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("git ls-remote: unexpected line %q", line)
		}
		heads = append(heads, [2]string{fields[0], fields[1]})
	}
	return heads, nil
}

// IsAncestor reports whether commit is reachable from ref.
func (r *Repo) IsAncestor(ctx context.Context, commit, ref string) (bool, error) {
	_, err := r.Run(ctx, "merge-base", "--is-ancestor", commit, ref)
	if err == nil {
		return true, nil
	}
	if exitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

// ConfigGet reads a single git config value. A missing key yields "" and no
// error.
func (r *Repo) ConfigGet(ctx context.Context, key string) (string, error) {
	out, err := r.Run(ctx, "config", "--get", key)
	if err != nil {
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ConfigSet writes key=value to the git config file selected by scope.
func (r *Repo) ConfigSet(ctx context.Context, key, value string, scope ConfigScope) error {
	if scope == "" {
		scope = ScopeLocal
	}
	_, err := r.Run(ctx, "config", "--"+string(scope), key, value)
	return err
}

func splitLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
