package memory

import (
	// Go Internal Packages
	"context"
	"sync"
)

// NotifyGuard is the single process counterpart of the redis guard.
type NotifyGuard struct {
	seen sync.Map
}

func (g *NotifyGuard) Acquire(_ context.Context, reference string) (bool, error) {
	_, loaded := g.seen.LoadOrStore(reference, struct{}{})
	return !loaded, nil
}
