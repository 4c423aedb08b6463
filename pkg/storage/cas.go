// Package storage content-addresses encoded images and resolves submitted
// image references to bytes.
//
// Every CID produced here is CIDv1 with the raw codec and a sha2-256
// multihash, so the same bytes always yield the same identifier regardless
// of which store holds them.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
//   - Put is idempotent.
//   - Stored objects are immutable.
//   - CIDs are derived from the bytes written.
//   - Get returns ErrNotFound when the CID is absent.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) bool
}

// CID returns the CIDv1 (raw + sha2-256) of data.
func CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// MustCID is CID for callers that cannot fail; sha2-256 never errors.
func MustCID(data []byte) cid.Cid {
	id, err := CID(data)
	if err != nil {
		panic(err)
	}
	return id
}

// Verify reports whether data hashes to id. Any multihash function supported
// by go-multihash is accepted, so CIDs minted elsewhere can be checked too.
func Verify(id cid.Cid, data []byte) error {
	if !id.Defined() {
		return ErrInvalidCID
	}
	pref := id.Prefix()
	got, err := pref.Sum(data)
	if err != nil {
		return err
	}
	if !got.Equals(id) {
		return ErrCIDMismatch
	}
	return nil
}
