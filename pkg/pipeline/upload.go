package pipeline

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/CollapseLoader/CollapseUpdater/pkg/artifacts"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

// uploadStep stores the listed files as a named artifact. Step output
// references like $BUILT_ARCHIVE are expanded before the paths are read.
func uploadStep(ctx context.Context, store *artifacts.Store, runID string, step *workflow.Step, outputs map[string]string) (*artifacts.Artifact, error) {
	if store == nil {
		return nil, eris.New("no artifact store configured")
	}

	name := step.With.ArtifactName
	if name == "" {
		return nil, eris.Errorf("step %s needs an artifact-name", step.Name)
	}

	if len(step.With.Paths) == 0 {
		return nil, eris.Errorf("step %s needs paths to upload", step.Name)
	}

	paths := make([]string, 0, len(step.With.Paths))
	for _, raw := range step.With.Paths {
		paths = append(paths, expandOutputs(raw, outputs))
	}

	meta, err := store.Put(ctx, runID, name, paths)
	if err != nil {
		return nil, err
	}

	ulog.Log(ctx).Info().Msgf("uploaded artifact %s (%d files)", name, len(meta.Files))
	return meta, nil
}

// expandOutputs substitutes $NAME references with the collected step outputs
func expandOutputs(s string, outputs map[string]string) string {
	return os.Expand(s, func(name string) string {
		return outputs[name]
	})
}
