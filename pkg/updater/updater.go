// Package updater keeps a local CollapseLoader installation up to date with
// the latest published GitHub release and starts it afterwards.
package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"

	"github.com/CollapseLoader/CollapseUpdater/pkg/archive"
	"github.com/CollapseLoader/CollapseUpdater/pkg/github"
	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
)

// Options configures an update run
type Options struct {
	// Prerelease selects the newest pre-release instead of the latest stable release
	Prerelease bool
	// Prefix is the filename prefix of loader builds, used for cleanup
	Prefix string
	// CurrentVersion is the running loader version, if known. Releases that
	// are not newer than this are not downloaded again.
	CurrentVersion string
	// WorkDir is where downloads land; defaults to the current directory
	WorkDir string
}

// Updater downloads and launches loader releases
type Updater struct {
	client *github.Client
	opts   Options
}

// New creates an Updater for the given client
func New(client *github.Client, opts Options) (*Updater, error) {
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "Failed to retrieve the current working directory")
		}
		opts.WorkDir = wd
	}

	return &Updater{client: client, opts: opts}, nil
}

// Run performs a full update: fetch the release, clean up old builds,
// download the asset unless it is already present, then start the loader
// with the given arguments. A launch failure after a successful download is
// logged but does not fail the update; when the download was skipped a
// loader that doesn't start is all that's left to report, so it fails.
func (u *Updater) Run(ctx context.Context, launchArgs []string) error {
	release, err := u.fetchRelease(ctx)
	if err != nil {
		return err
	}

	asset, err := release.MainAsset()
	if err != nil {
		return err
	}

	if u.opts.Prerelease {
		ulog.Task("Downloading latest pre-release: %s", asset.Name)
	} else {
		ulog.Task("Downloading latest release: %s", asset.Name)
	}

	u.deleteOld(ctx, asset.Name)

	target := filepath.Join(u.opts.WorkDir, asset.Name)
	skip, err := u.upToDate(ctx, release, asset, target)
	if err != nil {
		return err
	}

	if !skip {
		err = u.download(ctx, release, asset, target)
		if err != nil {
			return err
		}

		if archive.Supported(asset.Name) {
			err = archive.Extract(target, u.opts.WorkDir, nil)
			if err != nil {
				return err
			}
		}
	}

	ulog.Task("Starting CollapseLoader...")
	err = Launch(ctx, u.launchTarget(asset.Name), launchArgs)
	if err != nil {
		if skip {
			return eris.Wrap(err, "Failed to start the loader")
		}

		ulog.Fail("%s", eris.ToString(err, false))
		ulog.Log(ctx).Error().Err(err).Msg("Failed to start the loader")
	}

	return nil
}

func (u *Updater) fetchRelease(ctx context.Context) (*github.Release, error) {
	if u.opts.Prerelease {
		return u.client.LatestPrerelease(ctx)
	}

	return u.client.LatestRelease(ctx)
}

// upToDate checks whether the download can be skipped, either because the
// published version is not newer than the running one or because the file
// is already present with the expected size.
func (u *Updater) upToDate(ctx context.Context, release *github.Release, asset *github.Asset, target string) (bool, error) {
	if u.opts.CurrentVersion != "" {
		current, err := semver.NewVersion(strings.TrimPrefix(u.opts.CurrentVersion, "v"))
		if err != nil {
			return false, eris.Wrapf(err, "Invalid current version %s", u.opts.CurrentVersion)
		}

		published, err := release.Version()
		if err != nil {
			// unparseable tags fall back to the size check
			ulog.Log(ctx).Debug().Err(err).Msg("could not compare versions")
		} else if !published.GreaterThan(current) {
			info, statErr := os.Stat(target)
			if statErr == nil && info.Size() == asset.Size {
				ulog.Warn("Already up to date: %s", release.TagName)
				return true, nil
			}
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, eris.Wrapf(err, "Failed to check %s", target)
	}

	if info.Size() == asset.Size {
		ulog.Warn("Latest version already downloaded: %s", asset.Name)
		return true, nil
	}

	return false, nil
}

// deleteOld removes stale loader builds, keeping the excluded file.
// Failures are reported but don't stop the update.
func (u *Updater) deleteOld(ctx context.Context, exclude string) {
	entries, err := os.ReadDir(u.opts.WorkDir)
	if err != nil {
		ulog.Log(ctx).Warn().Err(err).Msg("Failed to scan for old builds")
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == exclude {
			continue
		}

		if !strings.HasPrefix(name, u.opts.Prefix) || !strings.HasSuffix(name, ".exe") {
			continue
		}

		err = os.Remove(filepath.Join(u.opts.WorkDir, name))
		if err != nil {
			ulog.Fail("Failed to delete %s", name)
			ulog.Log(ctx).Warn().Err(err).Msgf("Failed to delete %s", name)
		} else {
			ulog.Item("Deleted: %s", name)
		}
	}
}

func (u *Updater) download(ctx context.Context, release *github.Release, asset *github.Asset, target string) error {
	body, length, err := u.client.FetchAsset(ctx, asset)
	if err != nil {
		return err
	}
	defer body.Close()

	hdl, err := os.Create(target)
	if err != nil {
		return eris.Wrapf(err, "Failed to create file %s", target)
	}
	defer hdl.Close()

	hash := sha256.New()
	stats := newTransferStats()
	bar := getProgressBar(length, "     download")

	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if err != nil && n < 1 {
			if err == io.EOF {
				break
			}
			return eris.Wrapf(err, "Failed during download of %s", asset.Name)
		}

		_, err = hash.Write(buf[:n])
		if err != nil {
			return eris.Wrapf(err, "Failed to calculate checksum for %s", asset.Name)
		}

		_, err = hdl.Write(buf[:n])
		if err != nil {
			return eris.Wrapf(err, "Failed to write download to %s", target)
		}

		stats.Add(n)
		bar.Write(buf[:n])
	}
	bar.Finish()

	err = hdl.Close()
	if err != nil {
		return eris.Wrapf(err, "Failed to close %s", target)
	}

	err = u.verify(ctx, release, asset, hex.EncodeToString(hash.Sum(nil)))
	if err != nil {
		os.Remove(target)
		return err
	}

	ulog.Log(ctx).Info().
		Str("path", target).
		Msgf("Downloaded %s: %s", asset.Name, stats)
	return nil
}

// verify compares the streamed digest with the release's checksum asset, if
// one is published.
func (u *Updater) verify(ctx context.Context, release *github.Release, asset *github.Asset, digest string) error {
	checksumAsset := release.ChecksumAsset(asset.Name)
	if checksumAsset == nil {
		ulog.Log(ctx).Debug().Msgf("No checksum published for %s", asset.Name)
		return nil
	}

	body, _, err := u.client.FetchAsset(ctx, checksumAsset)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return eris.Wrapf(err, "Failed to read checksum for %s", asset.Name)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return eris.Errorf("Checksum asset %s is empty", checksumAsset.Name)
	}

	if fields[0] != digest {
		return eris.Errorf("Checksum check failed for %s: expected %s, got %s", asset.Name, fields[0], digest)
	}

	return nil
}

// launchTarget resolves the file to start. Archive assets contain the
// actual binary, so the first extracted loader build wins in that case.
func (u *Updater) launchTarget(assetName string) string {
	if !archive.Supported(assetName) {
		return filepath.Join(u.opts.WorkDir, assetName)
	}

	entries, err := os.ReadDir(u.opts.WorkDir)
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if !entry.IsDir() && name != assetName && strings.HasPrefix(name, u.opts.Prefix) {
				return filepath.Join(u.opts.WorkDir, name)
			}
		}
	}

	return filepath.Join(u.opts.WorkDir, assetName)
}

func getProgressBar(length int64, desc string) *progressbar.ProgressBar {
	if os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}
