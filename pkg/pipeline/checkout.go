package pipeline

import (
	"context"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rotisserie/eris"

	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

// checkoutStep provides the source tree for the leg. A "path" parameter
// points at an existing local working copy which is used as-is; otherwise
// "repository" (and optionally "ref") is cloned into the leg directory.
func checkoutStep(ctx context.Context, step *workflow.Step, legDir string) (string, error) {
	if path := step.With.Path; path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", eris.Wrapf(err, "Failed to resolve %s", path)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return "", eris.Wrapf(err, "Failed to check %s", abs)
		}
		if !info.IsDir() {
			return "", eris.Errorf("Checkout path %s is not a directory", abs)
		}

		ulog.Log(ctx).Debug().Str("path", abs).Msg("using local working copy")
		return abs, nil
	}

	repo := step.With.Repository
	if repo == "" {
		return "", eris.New("checkout needs either a path or a repository")
	}

	opts := &git.CloneOptions{
		URL:          repo,
		Depth:        1,
		SingleBranch: true,
	}
	if ref := step.With.Ref; ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	}

	dest := filepath.Join(legDir, "src")
	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to clone %s", repo)
	}

	ulog.Log(ctx).Info().Msgf("cloned %s", repo)
	return dest, nil
}
