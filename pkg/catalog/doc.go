// Package catalog provides [style.Source] implementations.
//
// Three sources are available:
//
//   - [Static] serves a fixed list of records, including the [Builtin] set
//     used when a network configures no source.
//   - [FileSource] reads records from a TOML file with [[styles]] tables.
//   - [HTTPSource] reads a style index and each style's metadata document
//     over HTTP, rewriting ipfs:// URLs through a gateway.
//
// Sources only deliver raw records; validation and program resolution
// happen when the registry installs the catalog.
package catalog
