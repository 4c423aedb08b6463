package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/httputil"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// DefaultWorkers bounds concurrent metadata requests of an HTTPSource.
const DefaultWorkers = 8

// HTTPSource reads a style index and then every style's metadata document.
//
// The index is a JSON document
//
//	{
//	  "collection": "0x…",
//	  "styles": [{"token_id": 1, "metadata_url": "ipfs://bafy…/metadata.json"}]
//	}
//
// and each metadata document carries name, properties.creator_name,
// properties.code and optionally properties.palette. The index is fetched
// fresh on every call; metadata documents are content addressed and go
// through the client cache. Any failed metadata request fails the fetch.
type HTTPSource struct {
	client  *httputil.Client
	index   string
	gateway string
	workers int
	logger  *log.Logger
}

// NewHTTPSource creates a source reading index through client. An empty
// gateway selects [httputil.DefaultGateway].
func NewHTTPSource(client *httputil.Client, index, gateway string, logger *log.Logger) *HTTPSource {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &HTTPSource{
		client:  client,
		index:   index,
		gateway: gateway,
		workers: DefaultWorkers,
		logger:  logger,
	}
}

// WithWorkers sets the number of concurrent metadata requests.
func (s *HTTPSource) WithWorkers(n int) *HTTPSource {
	if n > 0 {
		s.workers = n
	}
	return s
}

type indexDoc struct {
	Collection seed.Address `json:"collection"`
	Styles     []indexEntry `json:"styles"`
}

type indexEntry struct {
	TokenID     uint64       `json:"token_id"`
	MetadataURL string       `json:"metadata_url"`
	Collection  seed.Address `json:"collection"`
}

type metadataDoc struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Properties  metadataProperties `json:"properties"`
}

type metadataProperties struct {
	CreatorName string   `json:"creator_name"`
	Code        string   `json:"code"`
	Palette     []string `json:"palette"`
}

func (s *HTTPSource) Styles(ctx context.Context) ([]style.Record, error) {
	idx, err := s.fetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]style.Record, len(idx.Styles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ent := range idx.Styles {
		g.Go(func() error {
			url := httputil.GatewayURL(s.gateway, ent.MetadataURL)
			s.logger.Debug("fetching style metadata", "style", ent.TokenID, "url", url)

			var md metadataDoc
			if err := s.client.Get(gctx, url, &md); err != nil {
				return fetchError(gctx, err, "metadata of style %d", ent.TokenID)
			}
			coll := ent.Collection
			if coll.IsZero() {
				coll = idx.Collection
			}
			records[i] = style.Record{
				ID:          ent.TokenID,
				Collection:  coll,
				CodeRef:     strings.TrimSpace(md.Properties.Code),
				Palette:     md.Properties.Palette,
				Name:        md.Name,
				Creator:     md.Properties.CreatorName,
				MetadataURL: ent.MetadataURL,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *HTTPSource) fetchIndex(ctx context.Context) (*indexDoc, error) {
	url := httputil.GatewayURL(s.gateway, s.index)
	data, err := s.client.Fetch(ctx, url)
	if err != nil {
		return nil, fetchError(ctx, err, "style index %s", url)
	}
	var idx indexDoc
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode style index %s", url)
	}
	return &idx, nil
}

func fetchError(ctx context.Context, err error, format string, args ...any) error {
	code := errors.ErrCodeNetwork
	switch {
	case stderrors.Is(err, httputil.ErrNotFound):
		code = errors.ErrCodeNotFound
	case ctx.Err() != nil:
		code = errors.ErrCodeTimeout
	}
	return errors.Wrap(code, err, format, args...)
}
