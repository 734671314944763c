package cache

import (
	"context"
	"fmt"
)

// Layered answers from a fast front store and falls back to a persistent
// back store, copying back-store hits forward.
type Layered struct {
	front Store
	back  Store
}

func NewLayered(front, back Store) *Layered {
	return &Layered{front: front, back: back}
}

func (l *Layered) Get(ctx context.Context, source, lang string) (string, bool) {
	if v, ok := l.front.Get(ctx, source, lang); ok {
		return v, true
	}
	v, ok := l.back.Get(ctx, source, lang)
	if !ok {
		return "", false
	}
	_ = l.front.Set(ctx, source, lang, v)
	return v, true
}

// Set writes through to both stores. The front store is updated even when
// the back store fails.
func (l *Layered) Set(ctx context.Context, source, lang, translated string) error {
	if err := l.front.Set(ctx, source, lang, translated); err != nil {
		return fmt.Errorf("front cache: %w", err)
	}
	if err := l.back.Set(ctx, source, lang, translated); err != nil {
		return fmt.Errorf("back cache: %w", err)
	}
	return nil
}

var _ Store = (*Layered)(nil)
