package api

import "context"

// TurnFlags is the bitset of per-turn options. Using a dedicated type means
// unknown option families are rejected at compile time.
type TurnFlags uint32

const (
	// EnableInputMerging lets a transaction coalesce into a turn that is
	// already admitting instead of opening its own turn. Both the caller
	// and the host turn must carry the flag for a merge to happen.
	// Continuation turns never merge.
	EnableInputMerging TurnFlags = 1 << 0
)

// Has reports whether all bits of flag are set.
func (f TurnFlags) Has(flag TurnFlags) bool { return f&flag == flag }

type turnFlagsKey struct{}

// WithTurnFlags returns a context whose default turn flags have the given
// bits set. Transactions started with the returned context use these flags
// unless overridden per call.
func WithTurnFlags(ctx context.Context, flags TurnFlags) context.Context {
	return context.WithValue(ctx, turnFlagsKey{}, TurnFlagsFrom(ctx)|flags)
}

// WithoutTurnFlags returns a context with the given flag bits cleared.
func WithoutTurnFlags(ctx context.Context, flags TurnFlags) context.Context {
	return context.WithValue(ctx, turnFlagsKey{}, TurnFlagsFrom(ctx)&^flags)
}

// ResetTurnFlags returns a context with all default turn flags cleared.
func ResetTurnFlags(ctx context.Context) context.Context {
	return context.WithValue(ctx, turnFlagsKey{}, TurnFlags(0))
}

// TurnFlagsFrom returns the default turn flags carried by ctx, or zero.
func TurnFlagsFrom(ctx context.Context) TurnFlags {
	if f, ok := ctx.Value(turnFlagsKey{}).(TurnFlags); ok {
		return f
	}
	return 0
}
