// Package reqctx carries per-request metadata through context, keeping the
// HTTP layer and log enrichment decoupled from Fiber's locals.
package reqctx

import (
	"context"
	"time"
)

type ctxKey int

const metaKey ctxKey = iota

// RequestMeta is what the request-ID middleware captures per request.
type RequestMeta struct {
	RequestID   string
	ClientIP    string
	UserAgent   string
	RequestedAt time.Time
}

func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey, meta)
}

func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(metaKey).(*RequestMeta)
	return meta, ok && meta != nil
}

func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}
