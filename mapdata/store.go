package mapdata

import (
	"context"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrStorageAbsent is wrapped by every error returned when a requested chunk
// could not be loaded. Callers treat it as "no data".
var ErrStorageAbsent = errors.New("map chunk not available")

// Store is a backing storage that map chunks are read from. It can be a
// local directory or a remote object store.
type Store interface {
	Load(ctx context.Context, key Key) (*Chunk, error)
}

// FileName is the object name a chunk is stored under.
func FileName(key Key) string {
	return key.String() + ".bin"
}

// FileStore reads chunks from files in a local directory.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store reading from dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) Load(ctx context.Context, key Key) (*Chunk, error) {
	path := filepath.Join(s.Dir, FileName(key))
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrStorageAbsent, "opening %s: %v", path, err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(ErrStorageAbsent, "%s: %v", path, err)
	}
	if c.Key != key {
		return nil, errors.Wrapf(ErrStorageAbsent, "%s holds chunk %s", path, c.Key)
	}
	glog.V(2).Infof("loaded map chunk %s from %s", key, path)
	return c, nil
}

// SaveFile writes c into dir under its FileName.
func SaveFile(dir string, c *Chunk) error {
	f, err := os.Create(filepath.Join(dir, FileName(c.Key)))
	if err != nil {
		return errors.Wrap(err, "creating chunk file")
	}
	if err := Save(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads the chunk at (mx, my, mg) from store.
func LoadFile(ctx context.Context, store Store, mx, my int32, mg uint64) (*Chunk, error) {
	return store.Load(ctx, Key{X: mx, Y: my, Group: mg})
}
