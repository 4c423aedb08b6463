package httputil

import "strings"

// DefaultGateway is used when a network configures none.
const DefaultGateway = "https://ipfs.io"

// GatewayURL rewrites ipfs://CID[/path] to {gateway}/ipfs/CID[/path].
// Other URLs are returned unchanged.
func GatewayURL(gateway, raw string) string {
	rest, ok := strings.CutPrefix(raw, "ipfs://")
	if !ok {
		return raw
	}
	rest = strings.TrimPrefix(rest, "ipfs/")
	if gateway == "" {
		gateway = DefaultGateway
	}
	return strings.TrimSuffix(gateway, "/") + "/ipfs/" + rest
}
