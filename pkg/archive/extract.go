package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
)

// Supported reports whether Extract understands the archive format implied
// by the file name.
func Supported(name string) bool {
	for _, suffix := range []string{".zip", ".tar.gz", ".tar.bz2", ".tar.xz"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Extract unpacks the archive at path into destDir. The progress bar is
// advanced based on how much of the archive has been consumed; pass nil to
// skip progress reporting.
func Extract(path, destDir string, bar *progressbar.ProgressBar) error {
	hdl, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "Failed to open %s", path)
	}
	defer hdl.Close()

	switch {
	case strings.HasSuffix(path, ".zip"):
		return extractZip(hdl, destDir, bar)
	case strings.HasSuffix(path, ".tar.gz"):
		reader, err := gzip.NewReader(hdl)
		if err != nil {
			return eris.Wrapf(err, "Failed to read %s", path)
		}
		defer reader.Close()

		return extractTar(reader, hdl, destDir, bar)
	case strings.HasSuffix(path, ".tar.bz2"):
		return extractTar(bzip2.NewReader(hdl), hdl, destDir, bar)
	case strings.HasSuffix(path, ".tar.xz"):
		reader, err := xz.NewReader(hdl)
		if err != nil {
			return eris.Wrapf(err, "Failed to read %s", path)
		}

		return extractTar(reader, hdl, destDir, bar)
	}

	return eris.Errorf("Archive format of %s not supported", path)
}

func openExtractDest(destDir, item string) (*os.File, string, error) {
	parts := strings.Split(filepath.Clean(item), string(filepath.Separator))
	for _, part := range parts {
		// refuse entries that would escape the destination
		if part == ".." {
			return nil, "", eris.Errorf("Archive entry %s points outside the destination", item)
		}
	}

	dest := filepath.Join(destDir, filepath.Join(parts...))
	err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0770))
	if err != nil {
		return nil, "", eris.Wrapf(err, "Failed to create directory %s", filepath.Dir(dest))
	}

	hdl, err := os.Create(dest)
	if err != nil {
		return nil, "", eris.Wrapf(err, "Failed to create file %s", dest)
	}

	return hdl, dest, nil
}

func advanceBar(bar *progressbar.ProgressBar, f *os.File) {
	if bar == nil {
		return
	}

	pos, err := f.Seek(0, io.SeekCurrent)
	if err == nil {
		bar.Set64(pos)
	}
}

func extractZip(f *os.File, destDir string, bar *progressbar.ProgressBar) error {
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	reader, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return err
	}

	for _, item := range reader.File {
		if strings.HasSuffix(item.Name, "/") {
			continue
		}

		err = extractZipEntry(item, destDir)
		if err != nil {
			return err
		}

		advanceBar(bar, f)
	}

	return nil
}

func extractZipEntry(item *zip.File, destDir string) error {
	destHandle, dest, err := openExtractDest(destDir, item.Name)
	if err != nil {
		return err
	}
	defer destHandle.Close()

	itemHandle, err := item.Open()
	if err != nil {
		return eris.Wrapf(err, "Failed to open archive entry %s", item.Name)
	}
	defer itemHandle.Close()

	_, err = io.Copy(destHandle, itemHandle)
	if err != nil {
		return eris.Wrapf(err, "Failed to write extracted file %s", dest)
	}

	// .zip files don't carry permissions on Windows; restore what we have
	return os.Chmod(dest, item.Mode())
}

func extractTar(r io.Reader, f *os.File, destDir string, bar *progressbar.ProgressBar) error {
	reader := tar.NewReader(r)

	for {
		item, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}

			return eris.Wrap(err, "Failed to read archive entry")
		}

		fi := item.FileInfo()
		if fi.IsDir() {
			continue
		}

		destHandle, dest, err := openExtractDest(destDir, item.Name)
		if err != nil {
			return err
		}

		if item.Typeflag == tar.TypeSymlink {
			destHandle.Close()
			err = os.Remove(dest)
			if err != nil {
				return eris.Wrapf(err, "Failed to remove placeholder file %s", dest)
			}

			err = os.Symlink(item.Linkname, dest)
			if err != nil {
				return eris.Wrapf(err, "Failed to create symlink %s pointing to %s", dest, item.Linkname)
			}
			continue
		}

		_, err = io.Copy(destHandle, reader)
		if err != nil {
			destHandle.Close()
			return eris.Wrapf(err, "Failed to write extracted file %s", dest)
		}

		err = destHandle.Close()
		if err != nil {
			return eris.Wrapf(err, "Failed to close %s", dest)
		}

		os.Chmod(dest, fi.Mode())
		advanceBar(bar, f)
	}

	return nil
}
