package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Pack writes the given files into a zip archive at archivePath and places a
// sha256 checksum file next to it. It returns the checksum file's path.
func Pack(archivePath string, files []string) (string, error) {
	if len(files) == 0 {
		return "", eris.New("nothing to pack")
	}

	hdl, err := os.Create(archivePath)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to create %s", archivePath)
	}
	defer hdl.Close()

	writer := zip.NewWriter(hdl)
	for _, path := range files {
		err = packFile(writer, path)
		if err != nil {
			return "", err
		}
	}

	err = writer.Close()
	if err != nil {
		return "", eris.Wrapf(err, "Failed to finish %s", archivePath)
	}

	err = hdl.Close()
	if err != nil {
		return "", eris.Wrapf(err, "Failed to close %s", archivePath)
	}

	return WriteChecksum(archivePath)
}

func packFile(writer *zip.Writer, path string) error {
	source, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "Failed to open %s", path)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return eris.Wrapf(err, "Failed to check %s", path)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return eris.Wrapf(err, "Failed to build archive entry for %s", path)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	entry, err := writer.CreateHeader(header)
	if err != nil {
		return eris.Wrapf(err, "Failed to create archive entry for %s", path)
	}

	_, err = io.Copy(entry, source)
	if err != nil {
		return eris.Wrapf(err, "Failed to write archive entry for %s", path)
	}

	return nil
}

// WriteChecksum computes the sha256 digest of the given file and writes it
// to "<path>.sha256" in the usual "<digest>  <name>" format.
func WriteChecksum(path string) (string, error) {
	digest, err := FileDigest(path)
	if err != nil {
		return "", err
	}

	checksumPath := path + ".sha256"
	line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(path))
	err = os.WriteFile(checksumPath, []byte(line), os.FileMode(0660))
	if err != nil {
		return "", eris.Wrapf(err, "Failed to write %s", checksumPath)
	}

	return checksumPath, nil
}

// FileDigest returns the hex encoded sha256 digest of a file
func FileDigest(path string) (string, error) {
	hdl, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to open %s", path)
	}
	defer hdl.Close()

	hash := sha256.New()
	_, err = io.Copy(hash, hdl)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to calculate checksum for %s", path)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifyChecksum checks the file against a checksum file produced by
// WriteChecksum (or sha256sum).
func VerifyChecksum(path, checksumPath string) error {
	data, err := os.ReadFile(checksumPath)
	if err != nil {
		return eris.Wrapf(err, "Failed to read %s", checksumPath)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return eris.Errorf("Checksum file %s is empty", checksumPath)
	}

	digest, err := FileDigest(path)
	if err != nil {
		return err
	}

	if digest != fields[0] {
		return eris.Errorf("Checksum check failed for %s: expected %s, got %s", path, fields[0], digest)
	}

	return nil
}
