// Package mirror keeps raw image bytes on a local (usually shared, network
// mounted) filesystem so that a restarted or sibling instance can skip the
// origin.
package mirror

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/krisalay/image-cache/types"
)

// DefaultRoot is where the shared volume is mounted in production.
const DefaultRoot = "/mnt/shared-cache"

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// FS is a Mirror backed by a billy filesystem.
type FS struct {
	fs billy.Filesystem
}

// New returns a mirror rooted at root on the local disk.
func New(root string) *FS {
	if root == "" {
		root = DefaultRoot
	}
	return &FS{fs: osfs.New(root)}
}

// NewWithFilesystem returns a mirror on an existing billy filesystem,
// e.g. memfs in tests.
func NewWithFilesystem(fs billy.Filesystem) *FS {
	return &FS{fs: fs}
}

// Root returns the directory the mirror is rooted at.
func (m *FS) Root() string {
	return m.fs.Root()
}

// ReadRaw returns the bytes stored for key, or types.ErrCacheMiss.
func (m *FS) ReadRaw(_ context.Context, key string) ([]byte, error) {
	name := filePath(key)
	b, err := util.ReadFile(m.fs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrCacheMiss
		}
		return nil, types.MirrorIO("read", key, err)
	}
	return b, nil
}

// WriteRaw stores payload for key. The file is written under a temporary
// name and renamed into place so readers never see a partial image.
func (m *FS) WriteRaw(_ context.Context, key string, payload []byte) error {
	name := filePath(key)
	dir := path.Dir(name)

	if err := m.fs.MkdirAll(dir, dirPerm); err != nil {
		return types.MirrorIO("mkdir", key, err)
	}

	tmp, err := util.TempFile(m.fs, dir, "."+path.Base(name)+".tmp-")
	if err != nil {
		return types.MirrorIO("create", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = m.fs.Remove(tmpName)
		return types.MirrorIO("write", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = m.fs.Remove(tmpName)
		return types.MirrorIO("close", key, err)
	}
	if err := m.fs.Rename(tmpName, name); err != nil {
		_ = m.fs.Remove(tmpName)
		return types.MirrorIO("rename", key, err)
	}
	return nil
}

// filePath maps a key to a path inside the mirror. Cleaning against "/"
// keeps ".." segments from leaving the root.
func filePath(key string) string {
	return filepath.FromSlash(path.Clean("/" + key))
}
