// Package notify carries user-visible messages from the storefront managers
// to whatever front end is rendering them.
package notify

import "context"

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notification struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Nop drops every notification.
func Nop() Notifier {
	return Func(func(context.Context, Notification) {})
}
