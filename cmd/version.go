package cmd

import (
	"fmt"

	"github.com/inovacc/jenkinsfix/internal/application"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", application.AppName, application.Version)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
