package style

import "context"

// Source delivers the raw style records of one network.
type Source interface {
	Styles(ctx context.Context) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Record, error)

func (f SourceFunc) Styles(ctx context.Context) ([]Record, error) { return f(ctx) }

// Network describes one served network.
type Network struct {
	ID     uint64
	Name   string
	Source Source
}
