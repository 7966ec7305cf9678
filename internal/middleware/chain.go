// Package middleware composes the HTTP middleware of the development server.
//
// Middleware execution order:
//   - The first middleware added is the outermost wrapper.
//   - Request flows: Outer -> Inner -> Handler
//   - Response flows: Handler -> Inner -> Outer
package middleware

import (
	"fmt"
	"net/http"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered middleware stack.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a chain with the given middleware, outermost first.
func NewChain(middlewares ...Middleware) *Chain {
	c := &Chain{middlewares: make([]Middleware, 0, len(middlewares))}
	return c.Use(middlewares...)
}

// Use appends middleware inside the ones already added. Nil entries are
// skipped so optional middleware can be passed unconditionally.
func (c *Chain) Use(middlewares ...Middleware) *Chain {
	for _, m := range middlewares {
		if m != nil {
			c.middlewares = append(c.middlewares, m)
		}
	}
	return c
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Apply wraps handler with every middleware. It does not modify the chain.
func (c *Chain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("middleware: Apply called with a nil handler")
	}

	wrapped := handler
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		wrapped = c.middlewares[i](wrapped)
		if wrapped == nil {
			panic(fmt.Sprintf("middleware: middleware at index %d returned a nil handler", i))
		}
	}
	return wrapped
}
