// Package pipeline executes release workflows: it expands the build matrix
// and runs each leg's steps (checkout, cross-compile, artifact upload)
// against a local workspace.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/CollapseLoader/CollapseUpdater/pkg/artifacts"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

// ErrNotTriggered is returned when the event doesn't pass the workflow's
// trigger filters.
var ErrNotTriggered = eris.New("event does not trigger this workflow")

// Options configures a Runner
type Options struct {
	// Store receives uploaded artifacts
	Store *artifacts.Store
	// Workspace is the directory runs execute in; a temporary directory is
	// used when empty
	Workspace string
	// DryRun only logs what each step would do
	DryRun bool
}

// Runner executes workflows
type Runner struct {
	store     *artifacts.Store
	workspace string
	dryRun    bool
}

// Result describes a finished run
type Result struct {
	RunID     string
	Artifacts []*artifacts.Artifact
}

// NewRunner creates a Runner with the given options
func NewRunner(opts Options) (*Runner, error) {
	workspace := opts.Workspace
	if workspace == "" {
		var err error
		workspace, err = os.MkdirTemp("", "collapse-run-")
		if err != nil {
			return nil, eris.Wrap(err, "Failed to create workspace")
		}
	}

	return &Runner{
		store:     opts.Store,
		workspace: workspace,
		dryRun:    opts.DryRun,
	}, nil
}

// Run checks the event against the workflow's triggers and, if it matches,
// executes all jobs. Matrix legs of a job run concurrently; with fail-fast
// disabled a failing leg doesn't stop its siblings, the run is only marked
// failed once all legs finished.
func (r *Runner) Run(ctx context.Context, wf *workflow.Workflow, ev workflow.Event) (*Result, error) {
	if !wf.Matches(ev) {
		return nil, ErrNotTriggered
	}

	result := &Result{RunID: "run#" + nanoid.New()}
	logger := ulog.Log(ctx).With().Str("run", result.RunID).Logger()
	ctx = ulog.WithLogger(ctx, &logger)

	logger.Info().Msgf("Workflow %s triggered by %s", wf.Name, ev.Kind)

	names := make([]string, 0, len(wf.Jobs))
	for name := range wf.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := r.runJob(ctx, result, name, wf.Jobs[name])
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *Runner) runJob(ctx context.Context, result *Result, name string, job *workflow.Job) error {
	legs := job.Legs(name)

	var lock sync.Mutex
	legErrs := make([]error, 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, leg := range legs {
		leg := leg
		g.Go(func() error {
			arts, err := r.runLeg(gctx, result.RunID, leg, job)
			if err != nil {
				if job.Matrix.FailFast {
					return eris.Wrapf(err, "Leg %s failed", legName(leg))
				}

				ulog.Log(ctx).Error().Err(err).Msgf("Leg %s failed", legName(leg))
				lock.Lock()
				legErrs = append(legErrs, err)
				lock.Unlock()
				return nil
			}

			lock.Lock()
			result.Artifacts = append(result.Artifacts, arts...)
			lock.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return err
	}

	if len(legErrs) > 0 {
		return eris.Wrapf(legErrs[0], "%d of %d matrix legs failed", len(legErrs), len(legs))
	}

	return nil
}

func legName(leg workflow.Leg) string {
	if leg.Target == "" {
		return leg.Job
	}

	return leg.Job + "/" + leg.Target
}

func (r *Runner) runLeg(ctx context.Context, runID string, leg workflow.Leg, job *workflow.Job) ([]*artifacts.Artifact, error) {
	legDir := filepath.Join(r.workspace, sanitize(runID), sanitize(legName(leg)))
	err := os.MkdirAll(legDir, os.FileMode(0770))
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to create leg directory %s", legDir)
	}

	// srcDir is where build and run steps execute; checkout may move it
	srcDir := legDir
	outputs := map[string]string{}
	uploaded := make([]*artifacts.Artifact, 0)

	for _, step := range job.Steps {
		logger := ulog.Log(ctx).With().Str("step", fmt.Sprintf("%s: %s", legName(leg), step.Name)).Logger()
		stepCtx := ulog.WithLogger(ctx, &logger)

		if err = ctx.Err(); err != nil {
			return nil, err
		}

		if r.dryRun {
			logger.Info().Msg("would run")
			continue
		}

		logger.Info().Msg("running")

		switch {
		case step.Run != "":
			err = runShellStep(stepCtx, step, srcDir, leg, outputs)
		case step.Uses == workflow.StepCheckout:
			srcDir, err = checkoutStep(stepCtx, step, srcDir)
		case step.Uses == workflow.StepBuild:
			err = buildStep(stepCtx, step, leg.Target, srcDir, legDir, outputs)
		case step.Uses == workflow.StepUpload:
			var meta *artifacts.Artifact
			meta, err = uploadStep(stepCtx, r.store, runID, step, outputs)
			if meta != nil {
				uploaded = append(uploaded, meta)
			}
		default:
			err = eris.Errorf("step %s has no known kind", step.Name)
		}

		if err != nil {
			return nil, eris.Wrapf(err, "Step %s failed", step.Name)
		}
	}

	return uploaded, nil
}

func sanitize(name string) string {
	result := make([]rune, 0, len(name))
	for _, c := range name {
		switch c {
		case '/', '\\', '#', ':':
			result = append(result, '_')
		default:
			result = append(result, c)
		}
	}

	return string(result)
}
