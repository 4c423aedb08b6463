package style

import (
	"context"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/observability"
)

// DefaultFetchTimeout bounds one catalog fetch.
const DefaultFetchTimeout = 2 * time.Minute

// State is the lifecycle of one network's catalog.
type State int

const (
	NotStarted State = iota
	InFlight
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "not_started"
}

// call is one running fetch shared by every caller that joins it. result
// and err are written before done is closed.
type call struct {
	done    chan struct{}
	catalog *Catalog
	err     error
}

type entry struct {
	network Network

	// ready is the installed catalog; nil unless state == Ready.
	ready atomic.Pointer[Catalog]

	mu    sync.Mutex
	state State
	call  *call
	err   error
	gen   uint64
}

// Registry serves style catalogs for a fixed set of networks.
type Registry struct {
	entries      map[uint64]*entry
	order        []uint64
	logger       *log.Logger
	fetchTimeout time.Duration
}

// NewRegistry creates a registry for networks. A nil logger discards output.
func NewRegistry(logger *log.Logger, networks ...Network) *Registry {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	r := &Registry{
		entries:      make(map[uint64]*entry, len(networks)),
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, n := range networks {
		if _, dup := r.entries[n.ID]; dup {
			continue
		}
		r.entries[n.ID] = &entry{network: n}
		r.order = append(r.order, n.ID)
	}
	slices.Sort(r.order)
	return r
}

// SetFetchTimeout overrides DefaultFetchTimeout.
func (r *Registry) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		r.fetchTimeout = d
	}
}

// Networks returns the served networks ordered by id.
func (r *Registry) Networks() []Network {
	out := make([]Network, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].network)
	}
	return out
}

func (r *Registry) entry(network uint64) (*entry, error) {
	e, ok := r.entries[network]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "network %d not supported", network)
	}
	return e, nil
}

// State reports the catalog state of a network and, when Failed, the error
// of the last fetch.
func (r *Registry) State(network uint64) (State, error) {
	e, err := r.entry(network)
	if err != nil {
		return NotStarted, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.err
}

// Catalog returns the network's catalog, fetching it if necessary.
//
// Callers that arrive while a fetch is in flight wait for that fetch. The
// fetch itself is not bound to ctx; a caller whose ctx ends stops waiting
// without affecting the others.
func (r *Registry) Catalog(ctx context.Context, network uint64) (*Catalog, error) {
	e, err := r.entry(network)
	if err != nil {
		return nil, err
	}
	if c := e.ready.Load(); c != nil {
		return c, nil
	}

	e.mu.Lock()
	switch e.state {
	case Ready:
		c := e.ready.Load()
		e.mu.Unlock()
		return c, nil
	case InFlight:
		observability.Catalog().OnJoin(ctx, network)
	default:
		r.startLocked(ctx, e)
	}
	cl := e.call
	e.mu.Unlock()

	select {
	case <-cl.done:
		return cl.catalog, cl.err
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "waiting for catalog of network %d", network)
	}
}

// startLocked moves e to InFlight and launches the fetch. e.mu must be held.
func (r *Registry) startLocked(ctx context.Context, e *entry) {
	e.call = &call{done: make(chan struct{})}
	e.state = InFlight
	e.err = nil
	go r.fetch(context.WithoutCancel(ctx), e, e.call, e.gen)
}

func (r *Registry) fetch(ctx context.Context, e *entry, cl *call, gen uint64) {
	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	id := e.network.ID
	r.logger.Debug("fetching style catalog", "network", id)
	start := time.Now()

	var records []Record
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = errors.New(errors.ErrCodeInternal, "catalog source panicked: %v", p)
			}
		}()
		records, err = e.network.Source.Styles(ctx)
	}()

	var cat *Catalog
	if err != nil {
		err = errors.Wrap(errors.ErrCodeCatalogUnavailable, err, "fetch catalog for network %d", id)
		r.logger.Error("style catalog fetch failed", "network", id, "error", err)
	} else {
		cat = buildCatalog(id, records, r.logger)
		r.logger.Info("style catalog ready", "network", id, "styles", cat.Len(), "duration", time.Since(start))
	}
	observability.Catalog().OnFetch(ctx, id, cat.lenOrZero(), time.Since(start), err)

	e.mu.Lock()
	if e.gen == gen && e.call == cl {
		e.call = nil
		if err != nil {
			e.state = Failed
			e.err = err
		} else {
			e.state = Ready
			e.ready.Store(cat)
		}
	}
	e.mu.Unlock()

	cl.catalog, cl.err = cat, err
	close(cl.done)
}

func (c *Catalog) lenOrZero() int {
	if c == nil {
		return 0
	}
	return c.Len()
}

// FetchCatalog returns every style of a network ordered by id.
func (r *Registry) FetchCatalog(ctx context.Context, network uint64) ([]Style, error) {
	c, err := r.Catalog(ctx, network)
	if err != nil {
		return nil, err
	}
	return c.Styles(), nil
}

// GetStyle returns one style.
func (r *Registry) GetStyle(ctx context.Context, network, id uint64) (Style, error) {
	c, err := r.Catalog(ctx, network)
	if err != nil {
		return Style{}, err
	}
	s, ok := c.Get(id)
	if !ok {
		return Style{}, errors.New(errors.ErrCodeNotFound, "style %d not available on network %d", id, network)
	}
	return s, nil
}

// Prefetch starts the fetch of every network that has not started yet and
// returns immediately.
func (r *Registry) Prefetch(ctx context.Context) {
	for _, id := range r.order {
		e := r.entries[id]
		e.mu.Lock()
		if e.state == NotStarted || e.state == Failed {
			r.startLocked(ctx, e)
		}
		e.mu.Unlock()
	}
}

// Invalidate drops the network's catalog. A fetch still in flight delivers
// its result to the callers already waiting on it, but it is not installed.
func (r *Registry) Invalidate(network uint64) error {
	e, err := r.entry(network)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.gen++
	e.state = NotStarted
	e.call = nil
	e.err = nil
	e.ready.Store(nil)
	e.mu.Unlock()
	r.logger.Debug("style catalog invalidated", "network", network)
	return nil
}

// Reset invalidates every network.
func (r *Registry) Reset() {
	for _, id := range r.order {
		_ = r.Invalidate(id)
	}
}
