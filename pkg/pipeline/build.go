package pipeline

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/CollapseLoader/CollapseUpdater/pkg/archive"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
	"github.com/CollapseLoader/CollapseUpdater/pkg/workflow"
)

// buildStep cross-compiles the checked out crate for the leg's target and
// packages the binary into an archive with a checksum file next to it. The
// step itself never uploads anything; "upload-mode: none" is the only
// accepted mode, uploads belong to the dedicated upload step.
func buildStep(ctx context.Context, step *workflow.Step, target, srcDir, legDir string, outputs map[string]string) error {
	if target == "" {
		return eris.Errorf("step %s needs a matrix target", step.Name)
	}

	if mode := step.With.UploadMode; mode != "" && mode != "none" {
		return eris.Errorf("unsupported upload-mode %s, uploads are handled by the upload step", mode)
	}

	cmd := exec.CommandContext(ctx, "cargo", "build", "--release", "--target", target)
	cmd.Dir = srcDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "RUSTTARGET="+target, "UPLOAD_MODE=none")
	for name, value := range step.Env {
		cmd.Env = append(cmd.Env, name+"="+value)
	}

	ulog.Log(ctx).Info().Msgf("cargo build --release --target %s", target)
	err := cmd.Run()
	if err != nil {
		return eris.Wrapf(err, "Build for %s failed", target)
	}

	binPath, err := findBinary(filepath.Join(srcDir, "target", target, "release"))
	if err != nil {
		return err
	}

	base := filepath.Base(binPath)
	archivePath := filepath.Join(legDir, strings.TrimSuffix(base, filepath.Ext(base))+".zip")
	checksumPath, err := archive.Pack(archivePath, []string{binPath})
	if err != nil {
		return err
	}

	outputs["BUILT_ARCHIVE"] = archivePath
	outputs["BUILT_CHECKSUM"] = checksumPath
	ulog.Log(ctx).Info().Str("path", archivePath).Msg("packaged build")
	return nil
}

// findBinary picks the built executable out of cargo's release directory
func findBinary(releaseDir string) (string, error) {
	entries, err := os.ReadDir(releaseDir)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to read build output directory %s", releaseDir)
	}

	fallback := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".exe") {
			return filepath.Join(releaseDir, name), nil
		}

		// cargo leaves dep info and incremental data next to the binary
		if strings.HasSuffix(name, ".d") || strings.HasSuffix(name, ".pdb") || strings.HasSuffix(name, ".rlib") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if fallback == "" && info.Mode()&0111 != 0 {
			fallback = filepath.Join(releaseDir, name)
		}
	}

	if fallback == "" {
		return "", eris.Errorf("No binary found in %s", releaseDir)
	}

	return fallback, nil
}
