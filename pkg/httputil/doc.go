// Package httputil provides the HTTP plumbing shared by the catalog source
// and the image resolver.
//
// # Overview
//
//   - [Client]: GET with default headers, status classification, retry and
//     an optional byte cache in front
//   - [Retry]: automatic retry with exponential backoff
//   - [GatewayURL]: rewrite of ipfs:// URIs to an HTTP gateway
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried. The client wraps
// transport failures and 5xx responses; 404 maps to [ErrNotFound] and is
// returned immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.Get(ctx, url, &doc)
//	})
//
// # Caching
//
// [Client.Cached] stores response bodies in a [cache.Cache] under keys
// built by the cache package's Keyer, so the file and Redis backends serve
// catalog metadata across runs.
package httputil
