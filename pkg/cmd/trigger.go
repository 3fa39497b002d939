package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Checks whether an event would trigger the workflow",
	Long: `Evaluates the workflow's trigger filters against the given event without
running anything. Exits non-zero when the event doesn't match, which makes
this usable from scripts and hooks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := eventFromFlags(cmd)
		if err != nil {
			return err
		}

		wf, err := workflow.Parse(cfg.Pipeline.Workflow)
		if err != nil {
			return err
		}

		if wf.Matches(ev) {
			ulog.Task("Workflow %s would run", wf.Name)
			return nil
		}

		ulog.Warn("Workflow %s would not run", wf.Name)
		return eris.New("event does not match the trigger filters")
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	triggerCmd.Flags().String("event", workflow.EventPush, "Event kind (push or manual)")
	triggerCmd.Flags().String("branch", "main", "Branch of the push event")
	triggerCmd.Flags().StringSlice("paths", nil, "Files touched by the push event")
}
