package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/kiavash/daftar/pkg/reqctx"
)

const (
	HeaderRequestID = "X-Request-Id"
	LocalRequestID  = "request_id"
	LocalMeta       = "request_meta"
)

// RequestID middleware generates or preserves request IDs and captures
// request metadata (client IP, user-agent) for later context attachment.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		// prefer incoming, else generate
		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals(LocalRequestID, rid)
		c.Set(HeaderRequestID, rid) // send back to client

		meta := &reqctx.RequestMeta{
			RequestID:   rid,
			ClientIP:    c.IP(),
			UserAgent:   c.Get("User-Agent"),
			RequestedAt: time.Now(),
		}
		c.Locals(LocalMeta, meta)

		return c.Next()
	}
}

// RequestIDFromFiber retrieves the request ID from Fiber locals.
func RequestIDFromFiber(c fiber.Ctx) (string, bool) {
	v := c.Locals(LocalRequestID)
	s, ok := v.(string)
	return s, ok && s != ""
}

// RequestMetaFromFiber retrieves the full request metadata from Fiber locals.
func RequestMetaFromFiber(c fiber.Ctx) (*reqctx.RequestMeta, bool) {
	v := c.Locals(LocalMeta)
	meta, ok := v.(*reqctx.RequestMeta)
	return meta, ok && meta != nil
}

// ContextWithMeta returns the request context with the captured metadata
// attached, ready to cross the service boundary.
func ContextWithMeta(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if meta, ok := RequestMetaFromFiber(c); ok {
		ctx = reqctx.WithRequestMeta(ctx, meta)
	}
	return ctx
}
