package domain

import (
	"context"

	"github.com/petrijr/ripple/pkg/api"
)

// txState tracks an in-flight transaction's admission phase for one
// domain. It is bound into the admission context so that input calls
// made by the transaction body (or by merged admissions) are staged
// into the same turn.
type txState struct {
	domain *Domain
	active bool
	inputs []api.InputNode
}

type txStateKey struct{}

// withTxState binds st into ctx.
func withTxState(ctx context.Context, st *txState) context.Context {
	return context.WithValue(ctx, txStateKey{}, st)
}

// txStateFrom returns the transaction state bound for d, if ctx carries
// one. State belonging to a different domain is ignored, so nested
// transactions across distinct domains behave like independent calls.
func txStateFrom(ctx context.Context, d *Domain) *txState {
	st, ok := ctx.Value(txStateKey{}).(*txState)
	if !ok || st.domain != d {
		return nil
	}
	return st
}

// propagation carries the turn currently propagating for one domain.
// Input calls made through a context holding a propagation are deferred
// into the turn's continuation instead of being applied directly.
type propagation struct {
	domain *Domain
	turn   *api.Turn
}

type propagationKey struct{}

func withPropagation(ctx context.Context, d *Domain, turn *api.Turn) context.Context {
	return context.WithValue(ctx, propagationKey{}, &propagation{domain: d, turn: turn})
}

// propagationFrom returns the propagation bound for d, if any.
func propagationFrom(ctx context.Context, d *Domain) *propagation {
	p, ok := ctx.Value(propagationKey{}).(*propagation)
	if !ok || p.domain != d {
		return nil
	}
	return p
}
