package storage

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ipfs/go-cid"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/httputil"
)

// Fetcher retrieves the body of an HTTP URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Resolver turns an image reference into bytes.
//
// Accepted references:
//
//	ipfs://<cid>[/path]
//	<cid>
//	http(s)://...
//
// A bare CID, or an ipfs URI without a path, is looked up in the local CAS
// first and fetched through the gateway otherwise. Bytes obtained for a
// bare CID are verified against it.
type Resolver struct {
	CAS     CAS
	Fetcher Fetcher
	Gateway string
	Logger  *log.Logger
}

// NewResolver builds a resolver. cas and fetcher may be nil; a nil fetcher
// restricts resolution to the CAS.
func NewResolver(cas CAS, fetcher Fetcher, gateway string, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{CAS: cas, Fetcher: fetcher, Gateway: gateway, Logger: logger}
}

// Reference is a parsed image reference.
type Reference struct {
	CID  cid.Cid
	Path string
	URL  string
}

// IsContentAddressed reports whether the reference names exact bytes.
func (r Reference) IsContentAddressed() bool {
	return r.CID.Defined() && r.Path == ""
}

// ParseReference classifies ref.
func ParseReference(ref string) (Reference, error) {
	if err := errors.ValidateReference(ref); err != nil {
		return Reference{}, err
	}
	ref = strings.TrimSpace(ref)

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return Reference{URL: ref}, nil
	}

	rest, isURI := strings.CutPrefix(ref, "ipfs://")
	rest = strings.TrimPrefix(rest, "ipfs/")
	head, path, _ := strings.Cut(rest, "/")
	id, err := cid.Decode(head)
	if err != nil {
		if isURI {
			return Reference{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid cid in %q", ref)
		}
		return Reference{}, errors.New(errors.ErrCodeInvalidInput,
			"image reference must be an ipfs URI, a CID or an http(s) URL")
	}
	return Reference{CID: id, Path: path}, nil
}

// Resolve fetches the bytes behind ref.
func (r *Resolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	parsed, err := ParseReference(ref)
	if err != nil {
		return nil, err
	}

	if parsed.IsContentAddressed() && r.CAS != nil {
		data, err := r.CAS.Get(ctx, parsed.CID)
		switch {
		case err == nil:
			r.Logger.Debug("resolved from local store", "cid", parsed.CID)
			return data, nil
		case !IsNotFound(err):
			r.Logger.Warn("local store read failed", "cid", parsed.CID, "error", err)
		}
	}

	if r.Fetcher == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "image %s not in local store", ref)
	}

	url := parsed.URL
	if url == "" {
		url = httputil.GatewayURL(r.Gateway, "ipfs://"+joinPath(parsed.CID.String(), parsed.Path))
	}
	r.Logger.Debug("fetching image", "url", url)

	data, err := r.Fetcher.Fetch(ctx, url)
	if err != nil {
		if stderrors.Is(err, httputil.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "image %s", ref)
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch image %s", ref)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch image %s", ref)
	}

	if parsed.IsContentAddressed() {
		if err := Verify(parsed.CID, data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedImage, err, "gateway returned bytes not matching %s", parsed.CID)
		}
	}
	return data, nil
}

func joinPath(head, path string) string {
	if path == "" {
		return head
	}
	return head + "/" + path
}
