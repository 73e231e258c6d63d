package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/roivaz/git-pr-release/internal/config"
	"github.com/roivaz/git-pr-release/internal/remote"
)

// Config holds the settings of one release run.
type Config struct {
	Repository       remote.Repository
	Remote           string // remote holding both branches, e.g. origin
	ProductionBranch string
	StagingBranch    string
	DryRun           bool
}

// ProductionRef is the remote-tracking ref of the production branch.
func (c Config) ProductionRef() string { return c.Remote + "/" + c.ProductionBranch }

// StagingRef is the remote-tracking ref of the staging branch.
func (c Config) StagingRef() string { return c.Remote + "/" + c.StagingBranch }

// ConfigReader reads project settings persisted in git config.
type ConfigReader interface {
	ConfigGet(ctx context.Context, key string) (string, error)
}

// LoadConfig resolves the run configuration. Branch names persisted in git
// config win over the viper defaults.
func LoadConfig(ctx context.Context, store ConfigReader, repo remote.Repository) (Config, error) {
	cfg := Config{
		Repository: repo,
		Remote:     config.Remote(),
		DryRun:     config.DryRun(),
	}

	var err error
	cfg.ProductionBranch, err = branchSetting(ctx, store, config.GitKeyProductionBranch, config.DefaultProductionBranch())
	if err != nil {
		return Config{}, err
	}
	cfg.StagingBranch, err = branchSetting(ctx, store, config.GitKeyStagingBranch, config.DefaultStagingBranch())
	if err != nil {
		return Config{}, err
	}
	if cfg.ProductionBranch == cfg.StagingBranch {
		return Config{}, fmt.Errorf("production and staging branch are both %q", cfg.ProductionBranch)
	}
	return cfg, nil
}

func branchSetting(ctx context.Context, store ConfigReader, key, fallback string) (string, error) {
	value, err := store.ConfigGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	return fallback, nil
}
