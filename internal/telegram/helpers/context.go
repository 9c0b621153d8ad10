// Package helpers carries small utilities shared by handlers and middleware.
package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "ctx"

// StoreContext attaches ctx to the telebot context for downstream handlers.
func StoreContext(c tele.Context, ctx context.Context) {
	c.Set(ctxKey, ctx)
}

// Context returns the context attached by middleware, or a background one.
func Context(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}
