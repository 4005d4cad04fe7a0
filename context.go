package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/logger"
)

// WithRequestID attaches a correlation id to ctx. Calls made with ctx send it in
// the request-id header and log it; without one a fresh id is generated per call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return logger.ContextWithRequestID(ctx, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return logger.RequestID(ctx)
}
