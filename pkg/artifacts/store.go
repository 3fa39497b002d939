package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	bolt "go.etcd.io/bbolt"

	"github.com/CollapseLoader/CollapseUpdater/pkg/ulog"
)

var artifactBucket = []byte("artifacts")

// File is one stored file of an artifact
type File struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
}

// Artifact is the indexed metadata of one uploaded artifact
type Artifact struct {
	Name    string    `json:"name"`
	Run     string    `json:"run"`
	Files   []File    `json:"files"`
	Created time.Time `json:"created"`
}

// Store keeps artifact files under a root directory and indexes them in a
// bbolt database next to them.
type Store struct {
	db   *bolt.DB
	root string
}

// Open initializes the store at the given root, creating it if necessary
func Open(root string) (*Store, error) {
	err := os.MkdirAll(root, os.FileMode(0770))
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to create store directory %s", root)
	}

	db, err := bolt.Open(filepath.Join(root, "state.db"), 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to open artifact index in %s", root)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(artifactBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, eris.Wrap(err, "Failed to prepare artifact index")
	}

	return &Store{db: db, root: root}, nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func artifactKey(run, name string) []byte {
	return []byte(run + "/" + name)
}

// Put copies the given files into the store and records the artifact in the
// index. The artifact contains exactly the listed files; an empty list is
// an error.
func (s *Store) Put(ctx context.Context, run, name string, paths []string) (*Artifact, error) {
	if len(paths) == 0 {
		return nil, eris.Errorf("artifact %s has no files", name)
	}

	destDir := filepath.Join(s.root, run, name)
	err := os.MkdirAll(destDir, os.FileMode(0770))
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to create directory %s", destDir)
	}

	meta := Artifact{
		Name:    name,
		Run:     run,
		Created: time.Now(),
	}

	for _, path := range paths {
		file, err := copyIntoStore(path, destDir)
		if err != nil {
			return nil, err
		}

		ulog.Log(ctx).Debug().
			Str("path", path).
			Msgf("stored %s (%d bytes)", file.Name, file.Size)
		meta.Files = append(meta.Files, file)
	}

	encoded, err := json.Marshal(&meta)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to encode metadata for artifact %s", name)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactBucket).Put(artifactKey(run, name), encoded)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to index artifact %s", name)
	}

	return &meta, nil
}

// Get looks up a single artifact
func (s *Store) Get(run, name string) (*Artifact, error) {
	var meta *Artifact
	err := s.db.View(func(tx *bolt.Tx) error {
		item := tx.Bucket(artifactBucket).Get(artifactKey(run, name))
		if item == nil {
			return eris.Errorf("artifact %s not found for run %s", name, run)
		}

		meta = new(Artifact)
		return json.Unmarshal(item, meta)
	})
	if err != nil {
		return nil, err
	}

	return meta, nil
}

// List returns all indexed artifacts
func (s *Store) List() ([]*Artifact, error) {
	result := make([]*Artifact, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(artifactBucket).ForEach(func(k, v []byte) error {
			meta := new(Artifact)
			err := json.Unmarshal(v, meta)
			if err != nil {
				return eris.Wrapf(err, "Failed to decode index entry %s", k)
			}

			result = append(result, meta)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FilePath returns the on-disk location of a stored artifact file
func (s *Store) FilePath(meta *Artifact, name string) string {
	return filepath.Join(s.root, meta.Run, meta.Name, name)
}

func copyIntoStore(path, destDir string) (File, error) {
	var file File

	source, err := os.Open(path)
	if err != nil {
		return file, eris.Wrapf(err, "Failed to open %s", path)
	}
	defer source.Close()

	file.Name = filepath.Base(path)
	dest, err := os.Create(filepath.Join(destDir, file.Name))
	if err != nil {
		return file, eris.Wrapf(err, "Failed to create %s", filepath.Join(destDir, file.Name))
	}
	defer dest.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(dest, hash), source)
	if err != nil {
		return file, eris.Wrapf(err, "Failed to copy %s into the store", path)
	}

	file.Size = size
	file.Sha256 = hex.EncodeToString(hash.Sum(nil))
	return file, nil
}
