package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CollapseLoader/CollapseUpdater/pkg/artifacts"
	"github.com/CollapseLoader/CollapseUpdater/pkg/pipeline"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the release workflow for an event",
	Long: `Evaluates the workflow's triggers against the given event and, if they
match, runs the release job for every matrix target: checkout, cross-compile
and artifact upload.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := eventFromFlags(cmd)
		if err != nil {
			return err
		}

		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		wf, err := workflow.Parse(cfg.Pipeline.Workflow)
		if err != nil {
			return err
		}

		storePath, err := cfg.StorePath()
		if err != nil {
			return err
		}

		store, err := artifacts.Open(storePath)
		if err != nil {
			return err
		}
		defer store.Close()

		runner, err := pipeline.NewRunner(pipeline.Options{
			Store:     store,
			Workspace: cfg.Pipeline.Workspace,
			DryRun:    dryRun,
		})
		if err != nil {
			return err
		}

		ctx := ulog.WithLogger(cmd.Context(), &log.Logger)
		result, err := runner.Run(ctx, wf, ev)
		if err != nil {
			if eris.Is(err, pipeline.ErrNotTriggered) {
				log.Warn().Msgf("Workflow %s is not triggered by this event", wf.Name)
				return nil
			}

			return err
		}

		log.Info().Msgf("Run %s finished with %d artifact(s)", result.RunID, len(result.Artifacts))
		return nil
	},
}

func eventFromFlags(cmd *cobra.Command) (workflow.Event, error) {
	var ev workflow.Event

	kind, err := cmd.Flags().GetString("event")
	if err != nil {
		return ev, err
	}

	switch kind {
	case workflow.EventPush, workflow.EventManual:
	default:
		return ev, eris.Errorf("Unknown event kind %s", kind)
	}

	branch, err := cmd.Flags().GetString("branch")
	if err != nil {
		return ev, err
	}

	paths, err := cmd.Flags().GetStringSlice("paths")
	if err != nil {
		return ev, err
	}

	return workflow.Event{Kind: kind, Branch: branch, Paths: paths}, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("event", workflow.EventManual, "Event kind (push or manual)")
	runCmd.Flags().String("branch", "main", "Branch of the push event")
	runCmd.Flags().StringSlice("paths", nil, "Files touched by the push event")
	runCmd.Flags().BoolP("dry", "d", false, "Only print what each step would do")
}
