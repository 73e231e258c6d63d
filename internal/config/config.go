package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".git-pr-release.env"

func Init(root *cobra.Command) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	setDefaults()
	if root != nil {
		bindFlags(root)
	}
	_ = godotenv.Load(EnvFile())
}

func bindFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	_ = viper.BindPFlag(KeyDryRun, flags.Lookup("dry-run"))
	_ = viper.BindPFlag(KeyOutput, flags.Lookup("output"))
	_ = viper.BindPFlag(KeyRemote, flags.Lookup("remote"))
	_ = viper.BindPFlag(KeyRepoPath, flags.Lookup("repo-path"))
	_ = viper.BindPFlag(KeyDebug, flags.Lookup("debug"))
}

func setDefaults() {
	viper.SetDefault(KeyDebug, false)
	viper.SetDefault(KeyDryRun, false)
	viper.SetDefault(KeyOutput, "text")
	viper.SetDefault(KeyRemote, "origin")
	viper.SetDefault(KeyRepoPath, ".")
	viper.SetDefault(KeyEnvFile, defaultEnvFile)
	viper.SetDefault(KeyProductionBranch, "master")
	viper.SetDefault(KeyStagingBranch, "staging")
}

func Debug() bool                     { return viper.GetBool(KeyDebug) }
func DryRun() bool                    { return viper.GetBool(KeyDryRun) }
func Output() string                  { return viper.GetString(KeyOutput) }
func Remote() string                  { return viper.GetString(KeyRemote) }
func RepoPath() string                { return viper.GetString(KeyRepoPath) }
func EnvFile() string                 { return viper.GetString(KeyEnvFile) }
func DefaultProductionBranch() string { return viper.GetString(KeyProductionBranch) }
func DefaultStagingBranch() string    { return viper.GetString(KeyStagingBranch) }
