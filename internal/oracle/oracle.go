// Package oracle obtains opaque token and message identifiers from an
// identifier generator. The production generator is a separately built
// helper executable; see Native.
package oracle

import "context"

// Kind selects what the generator derives.
type Kind string

const (
	KindToken     Kind = "token"
	KindMessageID Kind = "message_id"
)

func (k Kind) Valid() bool {
	return k == KindToken || k == KindMessageID
}

// Oracle mints identifiers. Implementations must be safe for concurrent use.
type Oracle interface {
	Generate(ctx context.Context, kind Kind, args ...string) (string, error)
}

// Func adapts an ordinary function to the Oracle interface.
type Func func(ctx context.Context, kind Kind, args ...string) (string, error)

func (f Func) Generate(ctx context.Context, kind Kind, args ...string) (string, error) {
	return f(ctx, kind, args...)
}
