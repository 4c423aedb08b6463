// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through the hook interfaces below without
// depending on a metrics backend. The binary registers real implementations
// at startup (see the prom subpackage); until then every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    prom.Register(prometheus.DefaultRegisterer)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnRenderStart(ctx, "stripes")
//	// ... render ...
//	observability.Render().OnRenderComplete(ctx, "stripes", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the render pipeline.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, program string)
	OnRenderComplete(ctx context.Context, program string, duration time.Duration, err error)
}

// =============================================================================
// Gate Hooks
// =============================================================================

// GateHooks receives events from mint verification.
type GateHooks interface {
	// OnStage records the completion of one verification stage.
	OnStage(ctx context.Context, stage string, duration time.Duration, err error)

	// OnVerdict records the terminal outcome. reason is empty on accept.
	OnVerdict(ctx context.Context, accepted bool, reason string, diffPercentage float64)
}

// =============================================================================
// Catalog Hooks
// =============================================================================

// CatalogHooks receives events from the style registry.
type CatalogHooks interface {
	// OnFetch records a completed catalog fetch for a network.
	OnFetch(ctx context.Context, network uint64, styles int, duration time.Duration, err error)

	// OnJoin records a caller joining a fetch already in flight.
	OnJoin(ctx context.Context, network uint64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                          {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, time.Duration, error) {}

// NoopGateHooks is a no-op implementation of GateHooks.
type NoopGateHooks struct{}

func (NoopGateHooks) OnStage(context.Context, string, time.Duration, error) {}
func (NoopGateHooks) OnVerdict(context.Context, bool, string, float64)      {}

// NoopCatalogHooks is a no-op implementation of CatalogHooks.
type NoopCatalogHooks struct{}

func (NoopCatalogHooks) OnFetch(context.Context, uint64, int, time.Duration, error) {}
func (NoopCatalogHooks) OnJoin(context.Context, uint64)                             {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks  RenderHooks  = NoopRenderHooks{}
	gateHooks    GateHooks    = NoopGateHooks{}
	catalogHooks CatalogHooks = NoopCatalogHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetGateHooks registers custom gate hooks.
func SetGateHooks(h GateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		gateHooks = h
	}
}

// SetCatalogHooks registers custom catalog hooks.
func SetCatalogHooks(h CatalogHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		catalogHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Gate returns the registered gate hooks.
func Gate() GateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return gateHooks
}

// Catalog returns the registered catalog hooks.
func Catalog() CatalogHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return catalogHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	gateHooks = NoopGateHooks{}
	catalogHooks = NoopCatalogHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
