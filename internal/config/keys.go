package config

// Viper keys. Each one is also readable from the environment as
// GIT_PR_RELEASE_<KEY>, e.g. GIT_PR_RELEASE_DEBUG.
const (
	KeyDebug            = "debug"
	KeyDryRun           = "dry_run"
	KeyOutput           = "output"
	KeyRemote           = "remote"
	KeyRepoPath         = "repo_path"
	KeyEnvFile          = "env_file"
	KeyProductionBranch = "production_branch"
	KeyStagingBranch    = "staging_branch"
)

// Git config keys persisted in the repository (or global) git config.
const (
	GitKeyToken            = "pr-release.token"
	GitKeyProductionBranch = "pr-release.branch.production"
	GitKeyStagingBranch    = "pr-release.branch.staging"
)

const EnvPrefix = "GIT_PR_RELEASE"
