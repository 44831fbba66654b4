// Package requestctx carries per-turn identity through a context.
package requestctx

import "context"

type turnContextKey struct{}

// Turn identifies one inbound turn and the user who sent it.
type Turn struct {
	ID     string
	UserID string
}

// WithTurn stores turn identity in ctx.
func WithTurn(ctx context.Context, turn Turn) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, turnContextKey{}, turn)
}

// TurnFromContext returns the turn stored in ctx.
func TurnFromContext(ctx context.Context) (Turn, bool) {
	if ctx == nil {
		return Turn{}, false
	}
	turn, ok := ctx.Value(turnContextKey{}).(Turn)
	return turn, ok
}
