package publisher

import (
	"context"

	"fatepack/pkg/platform/audit"
)

// Nop discards events. Used by tests and by wiring paths that disable audit.
type Nop struct{}

func (Nop) Emit(context.Context, audit.Event) error { return nil }

// Multi emits to every configured publisher. The first error is returned but
// later publishers still run, matching the best-effort trail contract.
type Multi []audit.Publisher

func (m Multi) Emit(ctx context.Context, event audit.Event) error {
	var first error
	for _, p := range m {
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
