// Package middleware provides composable wrappers around a
// ports.DocumentStore: encryption at rest, content redaction, logging and
// metrics. Each middleware is store-agnostic and can wrap any backend.
package middleware

import "github.com/aretw0/espalier/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore

// Chain wraps store with the given middleware. The first middleware is the
// outermost one: Chain(s, a, b) builds a(b(s)), so a sees every call first.
func Chain(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
