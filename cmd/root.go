package cmd

import (
	"os"

	"github.com/inovacc/jenkinsfix/internal/application"
	"github.com/inovacc/jenkinsfix/internal/config"
	"github.com/spf13/cobra"
)

var (
	appConfig = config.Default()

	flagLogLevel  string
	flagLogFormat string
	flagConfig    string
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Scrub credentials from a repository's Jenkinsfile history",
	Long: `Jenkinsfix rewrites the Jenkinsfile in every commit of a repository.

It replaces the credential-bearing ERP clone URL with the sanitized backend URL,
renames 'master' branch references to 'main' and adds a credentialsId to git
steps that lack one. The history walk is done by git filter-branch; jenkinsfix
only transforms the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}

		appConfig = cfg

		return configureLogger(cmd.ErrOrStderr(), flagLogLevel, flagLogFormat, cfg.Log)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides JENKINSFIX_LOG_LEVEL and config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.ini (default: user config directory)")
}
