package config

import (
	"github.com/charmbracelet/log"

	"github.com/cod1ng-earth/splicenft/pkg/catalog"
	"github.com/cod1ng-earth/splicenft/pkg/httputil"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// StyleNetworks builds the registry networks. client serves http sources.
func (c Config) StyleNetworks(client *httputil.Client, logger *log.Logger) []style.Network {
	out := make([]style.Network, 0, len(c.Networks))
	for _, n := range c.Networks {
		out = append(out, style.Network{ID: n.ID, Name: n.Name, Source: c.source(n, client, logger)})
	}
	return out
}

func (c Config) source(n NetworkConfig, client *httputil.Client, logger *log.Logger) style.Source {
	switch n.Source {
	case SourceFile:
		return catalog.FileSource{Path: n.Path}
	case SourceHTTP:
		gw := n.Gateway
		if gw == "" {
			gw = c.Storage.Gateway
		}
		if logger != nil {
			logger = logger.With("network", n.ID)
		}
		return catalog.NewHTTPSource(client, n.Index, gw, logger)
	}
	return catalog.Builtin()
}
