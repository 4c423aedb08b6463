package style

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
)

var testCollection, _ = seed.ParseAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func records() []Record {
	return []Record{
		{ID: 2, Collection: testCollection, CodeRef: "splice:rings", Name: "Rings", Creator: "ana"},
		{ID: 1, Collection: testCollection, CodeRef: "stripes", Name: "Stripes", Palette: []string{"#000000", "#ffffff"}},
		{ID: 3, Collection: testCollection, CodeRef: "ipfs://bafy/unknown.js", Name: "Unknown"},
		{ID: 4, Collection: testCollection, CodeRef: "shards", Palette: []string{"nope"}},
		{ID: 1, Collection: testCollection, CodeRef: "shards", Name: "Duplicate"},
	}
}

// blockingSource counts calls and holds each one until released.
type blockingSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	fail    func(n int32) error
}

func newBlockingSource() *blockingSource {
	return &blockingSource{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *blockingSource) Styles(ctx context.Context) ([]Record, error) {
	n := s.calls.Add(1)
	s.started <- struct{}{}
	<-s.release
	if s.fail != nil {
		if err := s.fail(n); err != nil {
			return nil, err
		}
	}
	return records(), nil
}

func staticSource() Source {
	return SourceFunc(func(context.Context) ([]Record, error) { return records(), nil })
}

func TestRegistry_FetchCatalog(t *testing.T) {
	reg := NewRegistry(nil, Network{ID: 42, Name: "kovan", Source: staticSource()})

	styles, err := reg.FetchCatalog(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchCatalog() error: %v", err)
	}
	if len(styles) != 2 {
		t.Fatalf("got %d styles, want 2 (unknown program, bad palette and duplicate dropped)", len(styles))
	}
	if styles[0].ID != 1 || styles[1].ID != 2 {
		t.Errorf("styles not ordered by id: %d, %d", styles[0].ID, styles[1].ID)
	}
	if styles[0].Name != "Stripes" {
		t.Errorf("duplicate id should keep the first record, got %q", styles[0].Name)
	}
	if styles[0].Program == nil || styles[0].Program.Name() != "stripes" {
		t.Error("program not resolved")
	}
	if len(styles[0].Palette) != 2 || len(styles[1].Palette) != 0 {
		t.Errorf("palettes = %v, %v", styles[0].Palette, styles[1].Palette)
	}
	if styles[1].Network != 42 {
		t.Errorf("Network = %d, want 42", styles[1].Network)
	}
	if st, _ := reg.State(42); st != Ready {
		t.Errorf("State() = %v, want ready", st)
	}
}

func TestRegistry_GetStyle(t *testing.T) {
	reg := NewRegistry(nil, Network{ID: 42, Source: staticSource()})
	ctx := context.Background()

	s, err := reg.GetStyle(ctx, 42, 2)
	if err != nil {
		t.Fatalf("GetStyle() error: %v", err)
	}
	if s.Name != "Rings" || s.Creator != "ana" {
		t.Errorf("GetStyle() = %+v", s)
	}

	tests := []struct {
		name    string
		network uint64
		id      uint64
	}{
		{"unknown style", 42, 99},
		{"dropped style", 42, 3},
		{"unknown network", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reg.GetStyle(ctx, tt.network, tt.id); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("GetStyle() = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestRegistry_ConcurrentCallersShareFetch(t *testing.T) {
	src := newBlockingSource()
	reg := NewRegistry(nil, Network{ID: 42, Source: src})

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	cats := make([]*Catalog, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cats[i], errs[i] = reg.Catalog(context.Background(), 42)
		}()
	}

	<-src.started
	if st, _ := reg.State(42); st != InFlight {
		t.Errorf("State() during fetch = %v, want in_flight", st)
	}
	close(src.release)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if cats[i] != cats[0] {
			t.Errorf("caller %d received a different catalog", i)
		}
	}
}

func TestRegistry_FailureThenRetry(t *testing.T) {
	src := newBlockingSource()
	src.fail = func(n int32) error {
		if n == 1 {
			return fmt.Errorf("rpc unavailable")
		}
		return nil
	}
	close(src.release)
	reg := NewRegistry(nil, Network{ID: 42, Source: src})
	ctx := context.Background()

	var wg sync.WaitGroup
	var failures atomic.Int32
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Catalog(ctx, 42); errors.Is(err, errors.ErrCodeCatalogUnavailable) {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() == 0 {
		t.Fatal("no caller observed CATALOG_UNAVAILABLE")
	}
	if n := src.calls.Load(); n == 1 {
		if st, err := reg.State(42); st != Failed || !errors.Is(err, errors.ErrCodeCatalogUnavailable) {
			t.Errorf("State() = %v, %v; want failed", st, err)
		}
	}

	if _, err := reg.Catalog(ctx, 42); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if st, _ := reg.State(42); st != Ready {
		t.Errorf("State() after retry = %v, want ready", st)
	}
}

func TestRegistry_WaiterCancellationIsolated(t *testing.T) {
	src := newBlockingSource()
	reg := NewRegistry(nil, Network{ID: 42, Source: src})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := reg.Catalog(ctxA, 42)
		errA <- err
	}()
	<-src.started

	errB := make(chan error, 1)
	go func() {
		_, err := reg.Catalog(context.Background(), 42)
		errB <- err
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("canceled waiter got %v, want TIMEOUT", err)
	}

	close(src.release)
	if err := <-errB; err != nil {
		t.Errorf("other waiter failed after cancellation: %v", err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
}

func TestRegistry_InvalidateDuringFetch(t *testing.T) {
	src := newBlockingSource()
	reg := NewRegistry(nil, Network{ID: 42, Source: src})

	got := make(chan error, 1)
	go func() {
		_, err := reg.Catalog(context.Background(), 42)
		got <- err
	}()
	<-src.started

	if err := reg.Invalidate(42); err != nil {
		t.Fatal(err)
	}
	close(src.release)

	if err := <-got; err != nil {
		t.Errorf("waiter of invalidated fetch got %v, want result", err)
	}
	if st, _ := reg.State(42); st != NotStarted {
		t.Errorf("State() = %v, want not_started (result must not be installed)", st)
	}

	if _, err := reg.Catalog(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("source called %d times, want 2", n)
	}
}

func TestRegistry_Reset(t *testing.T) {
	var calls atomic.Int32
	src := SourceFunc(func(context.Context) ([]Record, error) {
		calls.Add(1)
		return records(), nil
	})
	reg := NewRegistry(nil, Network{ID: 1, Source: src}, Network{ID: 42, Source: src})
	ctx := context.Background()

	for _, n := range []uint64{1, 42, 1, 42} {
		if _, err := reg.Catalog(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}

	reg.Reset()
	for _, n := range []uint64{1, 42} {
		if st, _ := reg.State(n); st != NotStarted {
			t.Errorf("State(%d) after Reset = %v", n, st)
		}
	}
	_, _ = reg.Catalog(ctx, 42)
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if _, err := reg.State(7); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("State(unknown) = %v, want NOT_FOUND", err)
	}
}

func TestRegistry_Prefetch(t *testing.T) {
	src := newBlockingSource()
	reg := NewRegistry(nil, Network{ID: 42, Source: src})
	reg.Prefetch(context.Background())
	<-src.started
	close(src.release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := reg.Catalog(ctx, 42); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
}

func TestRegistry_SourcePanic(t *testing.T) {
	reg := NewRegistry(nil, Network{ID: 42, Source: SourceFunc(func(context.Context) ([]Record, error) {
		panic("boom")
	})})
	if _, err := reg.Catalog(context.Background(), 42); !errors.Is(err, errors.ErrCodeCatalogUnavailable) {
		t.Errorf("Catalog() = %v, want CATALOG_UNAVAILABLE", err)
	}
}

func TestNetworks(t *testing.T) {
	reg := NewRegistry(nil, Network{ID: 42, Name: "kovan"}, Network{ID: 1, Name: "mainnet"}, Network{ID: 42, Name: "dup"})
	ns := reg.Networks()
	if len(ns) != 2 || ns[0].ID != 1 || ns[1].Name != "kovan" {
		t.Errorf("Networks() = %+v", ns)
	}
}
