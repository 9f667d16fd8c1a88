// Package kit holds the transport-agnostic endpoint plumbing: the Endpoint
// function shape, middleware chaining, per-request context values, and the
// MCP tool adapter. Business logic lives behind Endpoints; transports
// (HTTP handlers, MCP tools) only decode/encode around them.
package kit

import "context"

// Endpoint is a single request/response interaction. The request and
// response are transport-decoded values, typically pointers to structs.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares outermost-first: Chain(a, b, c)(ep) runs
// a before b before c before ep.
func Chain(outer Middleware, rest ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(rest) - 1; i >= 0; i-- {
			next = rest[i](next)
		}
		return outer(next)
	}
}
