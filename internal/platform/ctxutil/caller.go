package ctxutil

import "context"

type callerKey struct{}

// Caller describes who issued a curation request and under which ids.
type Caller struct {
	TraceID   string
	RequestID string
	Operator  string
}

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// GetCaller returns the caller attached to ctx, or nil.
func GetCaller(ctx context.Context) *Caller {
	if c, ok := ctx.Value(callerKey{}).(*Caller); ok {
		return c
	}
	return nil
}

func RequestID(ctx context.Context) string {
	if c := GetCaller(ctx); c != nil {
		return c.RequestID
	}
	return ""
}

func Operator(ctx context.Context) string {
	if c := GetCaller(ctx); c != nil {
		return c.Operator
	}
	return ""
}
