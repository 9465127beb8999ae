package api

import (
	"context"

	"hostel/internal/account"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

func WithActor(ctx context.Context, a account.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) (account.Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(account.Actor)
	return a, ok && a.UserID != ""
}
