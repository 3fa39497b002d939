package cmd

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CollapseLoader/CollapseUpdater/pkg/config"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
)

// Version is stamped through -ldflags at build time
var Version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "collapse-updater",
	Short: "Updater and release pipeline for CollapseLoader",
	Long: `This command keeps a local CollapseLoader installation up to date and
bundles the tools that build and publish loader releases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, loader := config.Loader()
		err := loader.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		err = cfg.Validate()
		if err != nil {
			return err
		}

		if !cfg.Log.JSON {
			log.Logger = log.Output(ulog.NewConsoleWriter())
		}
		zerolog.SetGlobalLevel(cfg.LogLevel())

		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed")
	}
}
