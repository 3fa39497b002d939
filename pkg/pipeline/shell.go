package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

// runShellStep executes a step's run script through the embedded shell.
// The leg's target and all step outputs collected so far are part of the
// environment, so scripts can refer to $RUSTTARGET and $BUILT_ARCHIVE.
func runShellStep(ctx context.Context, step *workflow.Step, dir string, leg workflow.Leg, outputs map[string]string) error {
	env := os.Environ()
	if leg.Target != "" {
		env = append(env, "RUSTTARGET="+leg.Target)
	}
	for name, value := range outputs {
		env = append(env, fmt.Sprintf("%s=%s", name, value))
	}
	for name, value := range step.Env {
		env = append(env, fmt.Sprintf("%s=%s", name, value))
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "Failed to initialize shell")
	}

	parser := syntax.NewParser()
	file, err := parser.Parse(strings.NewReader(step.Run), step.Name)
	if err != nil {
		return eris.Wrapf(err, "Failed to parse script of step %s", step.Name)
	}

	err = runner.Run(ctx, file)
	if err != nil {
		return eris.Wrapf(err, "Script of step %s failed", step.Name)
	}

	return nil
}
