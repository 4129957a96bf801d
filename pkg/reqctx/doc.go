// Package reqctx carries per-request metadata (request ID, client IP,
// user-agent) through context.Context so that service-layer code can record
// where a submission came from without depending on the HTTP framework.
package reqctx
