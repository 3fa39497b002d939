package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CollapseLoader/CollapseUpdater/pkg/github"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update [-- loader arguments]",
	Short: "Downloads the latest loader release and starts it",
	Long: `Fetches the latest published release (or pre-release), replaces old loader
builds next to the updater and starts the loader. Arguments after -- are
passed through to the loader.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prerelease := cfg.Updater.Prerelease
		if cmd.Flags().Changed("prerelease") {
			var err error
			prerelease, err = cmd.Flags().GetBool("prerelease")
			if err != nil {
				return err
			}
		}

		ulog.Task("Updater for %s (%s)", cfg.Repo, Version)

		client := github.NewClient(cfg.Repo)
		u, err := updater.New(client, updater.Options{
			Prerelease:     prerelease,
			Prefix:         cfg.Updater.Prefix,
			CurrentVersion: currentVersion(),
		})
		if err != nil {
			return err
		}

		ctx := ulog.WithLogger(cmd.Context(), &log.Logger)
		return u.Run(ctx, args)
	},
}

// currentVersion returns the stamped build version, or nothing for dev builds
func currentVersion() string {
	if Version == "dev" {
		return ""
	}

	return Version
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolP("prerelease", "p", false, "Download the latest pre-release instead of the latest stable release")
}
