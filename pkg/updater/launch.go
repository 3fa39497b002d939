package updater

import (
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Launch starts the given binary with inherited stdio and waits for it to
// finish. The updater's own CLI arguments are forwarded unchanged.
func Launch(ctx context.Context, path string, args []string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return eris.Wrapf(err, "Failed to run %s", path)
	}

	return nil
}
