package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
)

// FileCAS is a local filesystem-backed content-addressable store.
//
// Objects are written once with mode 0444 and keyed strictly by CID under a
// two-character fan-out directory.
type FileCAS struct {
	root string
}

// NewFileCAS constructs a filesystem CAS rooted at root. The directory will
// be created if needed.
func NewFileCAS(root string) (*FileCAS, error) {
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileCAS{root: root}, nil
}

// Root returns the store directory.
func (c *FileCAS) Root() string { return c.root }

func (c *FileCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := CID(data)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := c.Get(ctx, id)
			if rerr != nil || !bytes.Equal(existing, data) {
				return cid.Undef, ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}
	return id, nil
}

// Get reads the object and re-verifies its hash.
func (c *FileCAS) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	b, err := os.ReadFile(c.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := Verify(id, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *FileCAS) Has(_ context.Context, id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(c.pathFor(id))
	return err == nil
}

func (c *FileCAS) pathFor(id cid.Cid) string {
	s := id.String()
	if len(s) < 2 {
		return filepath.Join(c.root, s)
	}
	return filepath.Join(c.root, s[len(s)-2:], s)
}

var _ CAS = (*FileCAS)(nil)
